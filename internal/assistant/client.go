// Package assistant is the client for the remote BrieflyAI assistant. One
// chat round trip carries the user message and the conversation continuation
// token; the reply may embed a newly created brief.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/briefly-ai/briefly-go/internal/briefs"
	apperrors "github.com/briefly-ai/briefly-go/internal/errors"
	"github.com/briefly-ai/briefly-go/internal/identity"
	"github.com/briefly-ai/briefly-go/internal/metrics"
	"github.com/briefly-ai/briefly-go/internal/requestid"
)

const service = "assistant"

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Reply is one assistant response. Brief is a tagged optional: present only
// when this turn produced an artifact, and callers must check for nil.
type Reply struct {
	Response       string        `json:"response"`
	ConversationID string        `json:"conversation_id"`
	Brief          *briefs.Brief `json:"brief,omitempty"`
}

// Conversation is a stored chat transcript as returned by the listing
// endpoints.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one stored chat message.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Client wraps the chat endpoints of the BrieflyAI REST API.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	auth       identity.Authenticator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewClient creates a new assistant client. The default timeout is generous
// because the assistant thinks before it answers.
func NewClient(baseURL string, auth identity.Authenticator, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		auth:       auth,
		logger:     logger.With().Str("component", service).Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing or custom timeouts).
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// SetMetrics attaches a metrics collector to the client.
func (c *Client) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

func (c *Client) do(ctx context.Context, method, path, operation string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestid.From(ctx))

	if err := c.auth.Apply(req); err != nil {
		c.metrics.RecordError(service, "auth")
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveDuration(operation, time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordRequest(operation, "transport_error")
		return nil, apperrors.Transport(service, err)
	}

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.metrics.RecordRequest(operation, fmt.Sprintf("http_%d", resp.StatusCode))
		return nil, apperrors.FromStatus(service, resp.StatusCode, strings.TrimSpace(string(respBody)), false)
	}

	c.metrics.RecordRequest(operation, "ok")
	return resp, nil
}

func decodeResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return apperrors.Transport(service, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// Chat sends one user message. conversationID is empty for the first turn of
// a session; the reply always carries the id to use on the next turn.
func (c *Client) Chat(ctx context.Context, message, conversationID string) (*Reply, error) {
	body := chatRequest{Message: message, ConversationID: conversationID}
	resp, err := c.do(ctx, http.MethodPost, "/chat", "chat", body)
	if err != nil {
		return nil, err
	}
	var out Reply
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConversations fetches the user's stored conversations, newest first.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	resp, err := c.do(ctx, http.MethodGet, "/conversations", "list_conversations", nil)
	if err != nil {
		return nil, err
	}
	var out []Conversation
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConversation fetches one stored conversation by id.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	resp, err := c.do(ctx, http.MethodGet, "/conversations/"+id, "get_conversation", nil)
	if err != nil {
		return nil, err
	}
	var out Conversation
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
