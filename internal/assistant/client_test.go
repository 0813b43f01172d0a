package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefly-ai/briefly-go/internal/briefs"
	apperrors "github.com/briefly-ai/briefly-go/internal/errors"
	"github.com/briefly-ai/briefly-go/internal/identity"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, &identity.StaticToken{Token: "test-token"}, zerolog.Nop())
}

func TestClient_ChatPlainReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "hello", in["message"])
		_, hasID := in["conversation_id"]
		assert.False(t, hasID, "first turn must not send a conversation id")
		json.NewEncoder(w).Encode(Reply{Response: "hi there", ConversationID: "c1"})
	})

	got, err := c.Chat(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got.Response)
	assert.Equal(t, "c1", got.ConversationID)
	assert.Nil(t, got.Brief)
}

func TestClient_ChatContinuesConversation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "c1", in["conversation_id"])
		json.NewEncoder(w).Encode(Reply{Response: "still here", ConversationID: "c1"})
	})

	_, err := c.Chat(context.Background(), "and then?", "c1")
	require.NoError(t, err)
}

func TestClient_ChatWithBriefArtifact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Reply{
			Response:       "I've created a brief for you.",
			ConversationID: "c1",
			Brief: &briefs.Brief{
				ID:         "b1",
				Title:      "Marketing Brief",
				Status:     briefs.StatusDraft,
				SourceType: briefs.SourceAI,
				UpdatedAt:  time.Now(),
			},
		})
	})

	got, err := c.Chat(context.Background(), "create a brief from #marketing", "")
	require.NoError(t, err)
	require.NotNil(t, got.Brief)
	assert.Equal(t, "Marketing Brief", got.Brief.Title)
	assert.Equal(t, briefs.SourceAI, got.Brief.SourceType)
}

func TestClient_ChatAuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid token"})
	})

	_, err := c.Chat(context.Background(), "hello", "")
	assert.ErrorIs(t, err, apperrors.ErrAuth)
}

func TestClient_ListConversations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations", r.URL.Path)
		json.NewEncoder(w).Encode([]Conversation{
			{ID: "c2", CreatedAt: time.Now()},
			{ID: "c1", CreatedAt: time.Now().Add(-time.Hour)},
		})
	})

	got, err := c.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c2", got[0].ID)
}

func TestClient_GetConversation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/c1", r.URL.Path)
		json.NewEncoder(w).Encode(Conversation{
			ID: "c1",
			Messages: []Message{
				{Role: "user", Content: "hello"},
				{Role: "assistant", Content: "hi"},
			},
		})
	})

	got, err := c.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "assistant", got.Messages[1].Role)
}
