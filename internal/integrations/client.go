// Package integrations is the settings-page client for third-party
// integration status and connection handshakes. The conversation core never
// calls these endpoints.
package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/briefly-ai/briefly-go/internal/errors"
	"github.com/briefly-ai/briefly-go/internal/identity"
	"github.com/briefly-ai/briefly-go/internal/requestid"
)

const service = "integrations"

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Status describes one integration's connection state.
type Status struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	LastSync  string `json:"last_sync,omitempty"`
}

// ConnectResult is the server's response to a connect request. AuthURL is
// where the user completes the handshake; the client never follows it.
type ConnectResult struct {
	Message string `json:"message"`
	AuthURL string `json:"auth_url,omitempty"`
}

// Client wraps the integration endpoints.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	auth       identity.Authenticator
	logger     zerolog.Logger
}

// NewClient creates a new integrations client.
func NewClient(baseURL string, auth identity.Authenticator, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		auth:       auth,
		logger:     logger.With().Str("component", service).Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

func (c *Client) do(ctx context.Context, method, path string, write bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestid.From(ctx))

	if err := c.auth.Apply(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Transport(service, err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, apperrors.FromStatus(service, resp.StatusCode, strings.TrimSpace(string(body)), write)
	}
	return resp, nil
}

// List fetches the status of all integrations.
func (c *Client) List(ctx context.Context) ([]Status, error) {
	resp, err := c.do(ctx, http.MethodGet, "/integrations", false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out []Status
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperrors.Transport(service, fmt.Errorf("decoding response: %w", err))
	}
	return out, nil
}

// Connect initiates the connection handshake for one integration.
func (c *Client) Connect(ctx context.Context, name string) (*ConnectResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/integrations/"+name+"/connect", true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out ConnectResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperrors.Transport(service, fmt.Errorf("decoding response: %w", err))
	}
	return &out, nil
}
