// Package briefstore is the thin request layer for brief CRUD and export
// against the remote BrieflyAI document store.
package briefstore

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

const service = "briefstore"

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the brief endpoints of the BrieflyAI REST API.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	auth       identity.Authenticator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewClient creates a new document store client. baseURL points at the API
// root, e.g. "https://api.briefly.example/api".
func NewClient(baseURL string, auth identity.Authenticator, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
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

// do executes an authenticated API request and maps failures onto the error
// taxonomy. write marks mutating requests for persistence-error mapping.
func (c *Client) do(ctx context.Context, method, path, operation string, body any, write bool) (*http.Response, error) {
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
		c.logger.Warn().
			Str("operation", operation).
			Int("status", resp.StatusCode).
			Msg("request rejected")
		return nil, apperrors.FromStatus(service, resp.StatusCode, strings.TrimSpace(string(respBody)), write)
	}

	c.metrics.RecordRequest(operation, "ok")
	return resp, nil
}

// decodeResponse reads and decodes a JSON response body.
func decodeResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return apperrors.Transport(service, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// List fetches all briefs, ordered by updated_at descending (server order).
func (c *Client) List(ctx context.Context) ([]briefs.Summary, error) {
	resp, err := c.do(ctx, http.MethodGet, "/briefs", "list_briefs", nil, false)
	if err != nil {
		return nil, err
	}
	var out []briefs.Summary
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single brief document.
func (c *Client) Get(ctx context.Context, id string) (*briefs.Brief, error) {
	resp, err := c.do(ctx, http.MethodGet, "/briefs/"+id, "get_brief", nil, false)
	if err != nil {
		return nil, err
	}
	var out briefs.Brief
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update persists the full brief document and returns the stored version.
func (c *Client) Update(ctx context.Context, brief *briefs.Brief) (*briefs.Brief, error) {
	resp, err := c.do(ctx, http.MethodPut, "/briefs/"+brief.ID, "update_brief", brief, true)
	if err != nil {
		return nil, err
	}
	var out briefs.Brief
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a brief from the remote store.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/briefs/"+id, "delete_brief", nil, true)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// ExportResult is the confirmation returned by an export request. There is
// no binary artifact; the destination holds the result.
type ExportResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ExportURL string `json:"export_url,omitempty"`
}

type exportRequest struct {
	BriefID     string `json:"brief_id"`
	Destination string `json:"destination"`
}

// Export sends a brief to a third-party destination. The server owns any
// resulting status change; callers re-fetch the brief to observe it.
func (c *Client) Export(ctx context.Context, briefID, destination string) (*ExportResult, error) {
	body := exportRequest{BriefID: briefID, Destination: destination}
	resp, err := c.do(ctx, http.MethodPost, "/export", "export_brief", body, true)
	if err != nil {
		return nil, err
	}
	var out ExportResult
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
