package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	restPathPrefix  = "/rest/v1/"
	maxErrorBodyLen = 2048
)

var (
	// ErrMissingBaseURL indicates the client was constructed without a store URL.
	ErrMissingBaseURL = errors.New("store: base url required")
	// ErrMissingAPIKey indicates the client was constructed without a credential.
	ErrMissingAPIKey = errors.New("store: api key required")
	// ErrMissingTable indicates the client was constructed without a table name.
	ErrMissingTable = errors.New("store: table name required")
)

// ClientConfig bundles the per-store connection parameters. The primary and
// backup stores share the same wire shape and differ only in these values.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Table      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client issues authenticated requests against one PostgREST-style store table.
type Client struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a store client with validated configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		return nil, ErrMissingTable
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		table:      table,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Table returns the table name the client is bound to.
func (c *Client) Table() string {
	return c.table
}

// Do issues a single request against the store table. The query string must be
// empty or start with "?". Bodies are attached for POST and PATCH only. Any
// non-2xx response is returned as a *RequestError; the caller decides whether
// to retry.
func (c *Client) Do(ctx context.Context, method, query string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil && (method == http.MethodPost || method == http.MethodPatch) {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("store: encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	url := c.baseURL + restPathPrefix + c.table + query
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("store: build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyLen))
		requestErr := &RequestError{
			Status:     response.StatusCode,
			StatusText: http.StatusText(response.StatusCode),
			Body:       string(detail),
		}
		c.logger.Debug("store request rejected",
			zap.String("table", c.table),
			zap.String("method", method),
			zap.Int("status", response.StatusCode))
		return nil, requestErr
	}

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("store: read response: %w", err)
	}
	return json.RawMessage(payload), nil
}

// List fetches rows matching the query and returns them individually decoded.
func (c *Client) List(ctx context.Context, query string) ([]json.RawMessage, error) {
	payload, err := c.Do(ctx, http.MethodGet, query, nil)
	if err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("store: decode list response: %w", err)
	}
	return rows, nil
}

// Insert creates the provided records and returns the persisted rows as echoed
// by the store (Prefer: return=representation carries the assigned ids back).
func (c *Client) Insert(ctx context.Context, records any) ([]json.RawMessage, error) {
	payload, err := c.Do(ctx, http.MethodPost, "", records)
	if err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("store: decode insert response: %w", err)
	}
	return rows, nil
}

// Update patches rows matching the query with the given record fields.
func (c *Client) Update(ctx context.Context, query string, record any) ([]json.RawMessage, error) {
	payload, err := c.Do(ctx, http.MethodPatch, query, record)
	if err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &rows); err != nil {
			return nil, fmt.Errorf("store: decode update response: %w", err)
		}
	}
	return rows, nil
}

// Delete removes rows matching the query.
func (c *Client) Delete(ctx context.Context, query string) error {
	_, err := c.Do(ctx, http.MethodDelete, query, nil)
	return err
}
