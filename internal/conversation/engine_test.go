package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefly-ai/briefly-go/internal/assistant"
	"github.com/briefly-ai/briefly-go/internal/briefs"
	apperrors "github.com/briefly-ai/briefly-go/internal/errors"
)

type fakeChatter struct {
	chatFn func(ctx context.Context, message, conversationID string) (*assistant.Reply, error)
}

func (f *fakeChatter) Chat(ctx context.Context, message, conversationID string) (*assistant.Reply, error) {
	return f.chatFn(ctx, message, conversationID)
}

type sinkRecorder struct {
	upserts []briefs.Summary
}

func (s *sinkRecorder) Upsert(summary briefs.Summary) {
	s.upserts = append(s.upserts, summary)
}

func TestEngine_SubmitRejectsEmptyMessage(t *testing.T) {
	e := NewEngine(&fakeChatter{}, &sinkRecorder{}, zerolog.Nop())

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := e.Submit(context.Background(), text)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}
	assert.Empty(t, e.Turns())
	assert.Equal(t, StateIdle, e.State())
}

func TestEngine_SubmitSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	chatter := &fakeChatter{chatFn: func(context.Context, string, string) (*assistant.Reply, error) {
		close(entered)
		<-release
		return &assistant.Reply{Response: "ok", ConversationID: "c1"}, nil
	}}
	e := NewEngine(chatter, &sinkRecorder{}, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background(), "first")
		done <- err
	}()
	<-entered

	assert.Equal(t, StateSending, e.State())
	_, err := e.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, apperrors.ErrState)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, e.State())

	// Only the first exchange made it into history.
	turns := e.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "ok", turns[1].Content)
}

func TestEngine_HistorySurvivesFailedTurn(t *testing.T) {
	boom := errors.New("boom")
	chatter := &fakeChatter{chatFn: func(context.Context, string, string) (*assistant.Reply, error) {
		return nil, boom
	}}
	var events []Event
	e := NewEngine(chatter, &sinkRecorder{}, zerolog.Nop(), WithListener(func(ev Event) {
		events = append(events, ev)
	}))

	_, err := e.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, boom)

	turns := e.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, StateIdle, e.State())

	require.Len(t, events, 2)
	assert.Equal(t, EventTurnAppended, events[0].Kind)
	assert.Equal(t, EventTurnFailed, events[1].Kind)

	// The session keeps working after a failed turn.
	chatter.chatFn = func(context.Context, string, string) (*assistant.Reply, error) {
		return &assistant.Reply{Response: "better", ConversationID: "c1"}, nil
	}
	_, err = e.Submit(context.Background(), "retry")
	require.NoError(t, err)
	assert.Len(t, e.Turns(), 3)
}

func TestEngine_AdoptsConversationID(t *testing.T) {
	var sawIDs []string
	chatter := &fakeChatter{chatFn: func(_ context.Context, _, conversationID string) (*assistant.Reply, error) {
		sawIDs = append(sawIDs, conversationID)
		return &assistant.Reply{Response: "ok", ConversationID: "c1"}, nil
	}}
	e := NewEngine(chatter, &sinkRecorder{}, zerolog.Nop())

	_, err := e.Submit(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, "c1", e.ConversationID())

	_, err = e.Submit(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "c1"}, sawIDs)
}

func TestEngine_BriefArtifactFlowsToSink(t *testing.T) {
	brief := &briefs.Brief{
		ID:        "b1",
		Title:     "Marketing Brief",
		Status:    briefs.StatusDraft,
		UpdatedAt: time.Now(),
	}
	chatter := &fakeChatter{chatFn: func(context.Context, string, string) (*assistant.Reply, error) {
		return &assistant.Reply{Response: "Here is your brief", ConversationID: "c1", Brief: brief}, nil
	}}
	sink := &sinkRecorder{}
	var created []briefs.Summary
	e := NewEngine(chatter, sink, zerolog.Nop(), WithListener(func(ev Event) {
		if ev.Kind == EventBriefCreated {
			created = append(created, *ev.Brief)
		}
	}))

	turn, err := e.Submit(context.Background(), "create a brief from #marketing")
	require.NoError(t, err)

	require.NotNil(t, turn.BriefRef)
	assert.Equal(t, "b1", turn.BriefRef.ID)
	require.Len(t, sink.upserts, 1)
	assert.Equal(t, "Marketing Brief", sink.upserts[0].Title)
	require.Len(t, created, 1)
	assert.Equal(t, "b1", created[0].ID)
}

func TestEngine_PlainReplyHasNoBrief(t *testing.T) {
	chatter := &fakeChatter{chatFn: func(context.Context, string, string) (*assistant.Reply, error) {
		return &assistant.Reply{Response: "just chatting", ConversationID: "c1"}, nil
	}}
	sink := &sinkRecorder{}
	e := NewEngine(chatter, sink, zerolog.Nop())

	turn, err := e.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Nil(t, turn.BriefRef)
	assert.Empty(t, sink.upserts)
}

func TestEngine_ResetClearsHistoryNotCollection(t *testing.T) {
	chatter := &fakeChatter{chatFn: func(context.Context, string, string) (*assistant.Reply, error) {
		return &assistant.Reply{
			Response:       "done",
			ConversationID: "c1",
			Brief:          &briefs.Brief{ID: "b1", Title: "Kept", UpdatedAt: time.Now()},
		}, nil
	}}
	sink := &sinkRecorder{}
	e := NewEngine(chatter, sink, zerolog.Nop())

	_, err := e.Submit(context.Background(), "make a brief")
	require.NoError(t, err)
	require.Len(t, sink.upserts, 1)

	require.NoError(t, e.Reset())
	assert.Empty(t, e.Turns())
	assert.Empty(t, e.ConversationID())
	assert.Len(t, sink.upserts, 1)
}

func TestEngine_ResetRejectedWhileSending(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	chatter := &fakeChatter{chatFn: func(context.Context, string, string) (*assistant.Reply, error) {
		close(entered)
		<-release
		return &assistant.Reply{Response: "ok", ConversationID: "c1"}, nil
	}}
	e := NewEngine(chatter, &sinkRecorder{}, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background(), "slow")
		done <- err
	}()
	<-entered

	assert.ErrorIs(t, e.Reset(), apperrors.ErrState)

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, e.Reset())
}

func TestEngine_ClockStampsTurns(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	chatter := &fakeChatter{chatFn: func(context.Context, string, string) (*assistant.Reply, error) {
		return &assistant.Reply{Response: "ok", ConversationID: "c1"}, nil
	}}
	e := NewEngine(chatter, &sinkRecorder{}, zerolog.Nop(), WithClock(func() time.Time { return fixed }))

	_, err := e.Submit(context.Background(), "hello")
	require.NoError(t, err)

	for _, turn := range e.Turns() {
		assert.Equal(t, fixed, turn.Timestamp)
	}
}
