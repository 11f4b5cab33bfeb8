package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ginjaninja78/loadexport/internal/types"
)

// RemoteClient queries the load service over HTTP with Bearer auth. It
// never retries: a failed or slow query simply yields no remote data.
type RemoteClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// RemoteOption configures RemoteClient behavior.
type RemoteOption func(*RemoteClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) RemoteOption {
	return func(c *RemoteClient) {
		c.httpClient = hc
	}
}

// NewRemoteClient creates a client for the service at baseURL. An empty
// token sends no Authorization header.
func NewRemoteClient(baseURL, token string, opts ...RemoteOption) *RemoteClient {
	c := &RemoteClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConfirmedLoads implements Remote. It requests
// GET /api/loads?status=confirmed[&projectId=scope].
func (c *RemoteClient) ConfirmedLoads(ctx context.Context, scope string) ([]types.RawRecord, error) {
	query := url.Values{"status": {"confirmed"}}
	if scope != "" {
		query.Set("projectId", scope)
	}

	var body json.RawMessage
	if err := c.getJSON(ctx, "/api/loads", query, &body); err != nil {
		return nil, err
	}
	return decodeLoads(body)
}

// getJSON sends a GET request and unmarshals the JSON response into dest.
// Returns *APIError for non-2xx responses.
func (c *RemoteClient) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(body)
		if len(bodyStr) > 512 {
			bodyStr = bodyStr[:512]
		}
		return &APIError{StatusCode: resp.StatusCode, Body: bodyStr}
	}

	return json.Unmarshal(body, dest)
}

// decodeLoads accepts either {"loads": [...]} or a bare array.
func decodeLoads(body json.RawMessage) ([]types.RawRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '{' {
		var wrapper struct {
			Loads json.RawMessage `json:"loads"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to decode loads response: %w", err)
		}
		return decodeLoads(wrapper.Loads)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var records []types.RawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode loads response: %w", err)
	}

	out := records[:0]
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}
