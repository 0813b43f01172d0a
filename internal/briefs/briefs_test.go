package briefs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownDestination(t *testing.T) {
	assert.True(t, KnownDestination(DestinationAsana))
	assert.True(t, KnownDestination(DestinationClickUp))
	assert.True(t, KnownDestination(DestinationSheets))
	assert.False(t, KnownDestination("trello"))
	assert.False(t, KnownDestination(""))
}

func TestKnownListField(t *testing.T) {
	for _, f := range []ListField{FieldDeliverables, FieldOwners, FieldAssets, FieldOpenQuestions} {
		assert.True(t, KnownListField(f))
	}
	assert.False(t, KnownListField("budget"))
}

func TestBrief_ListRoundTrip(t *testing.T) {
	b := &Brief{}
	b.SetList(FieldOwners, []string{"ann", "bob"})
	assert.Equal(t, []string{"ann", "bob"}, b.List(FieldOwners))
	assert.Equal(t, []string{"ann", "bob"}, b.Owners)
	assert.Nil(t, b.List(FieldAssets))
}

func TestBrief_Summary(t *testing.T) {
	now := time.Now()
	b := &Brief{
		ID:         "b1",
		Title:      "Launch",
		Objective:  "Ship it",
		Status:     StatusDraft,
		SourceType: SourceAI,
		UpdatedAt:  now,
		Owners:     []string{"ann"},
	}

	s := b.Summary()
	assert.Equal(t, "b1", s.ID)
	assert.Equal(t, "Launch", s.Title)
	assert.Equal(t, StatusDraft, s.Status)
	assert.Equal(t, SourceAI, s.SourceType)
	assert.Equal(t, now, s.UpdatedAt)
}

func TestBrief_CloneIsDeep(t *testing.T) {
	b := &Brief{
		ID:           "b1",
		Deliverables: []string{"Logo"},
		Owners:       []string{"ann"},
	}

	clone := b.Clone()
	require.NotSame(t, b, clone)
	clone.Deliverables[0] = "changed"
	clone.Owners = append(clone.Owners, "bob")

	assert.Equal(t, []string{"Logo"}, b.Deliverables)
	assert.Equal(t, []string{"ann"}, b.Owners)
}
