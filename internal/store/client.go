// Package store is a typed client for the hosted tabular data service
// (PostgREST-style REST contract). All expected failure paths come back
// as tagged errors rather than panics: ConfigError, TransportError,
// RemoteError and ErrNotFound.
package store

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

	"go.uber.org/zap"

	"github.com/certinal/booth-backend/internal/models"
)

const defaultTimeout = 10 * time.Second

// Config holds the store endpoint and credential. The same credential is
// sent as both the apikey header and the bearer token.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client issues REST calls against the store. Construction never fails;
// missing configuration surfaces as ConfigError on first use so the
// process can start (and report cleanly) without credentials.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New creates a store client.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (c *Client) checkConfig() error {
	if strings.TrimSpace(c.cfg.URL) == "" {
		return &ConfigError{Missing: "store URL"}
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return &ConfigError{Missing: "store API key"}
	}
	return nil
}

// Option adjusts the query string of a Select or Update call.
type Option func(q url.Values)

// Filter adds a PostgREST filter, e.g. Filter("token_number", "is", "null")
// or Filter("id", "eq", rowID).
func Filter(column, op, value string) Option {
	return func(q url.Values) {
		q.Set(column, op+"."+value)
	}
}

// OrderDesc orders results by column, newest first.
func OrderDesc(column string) Option {
	return func(q url.Values) {
		q.Set("order", column+".desc")
	}
}

// Insert sends one or more new rows and returns the stored representation
// (including the generated id and creation timestamp). Inserts are not
// idempotent, so the client never retries; retry policy belongs to the
// caller.
func (c *Client) Insert(ctx context.Context, table string, records []models.Registration) ([]models.Registration, error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}
	body, err := insertBody(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	rows, err := c.do(ctx, http.MethodPost, c.restURL(table, nil), body, "insert")
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Select fetches rows from table, optionally filtered and ordered.
func (c *Client) Select(ctx context.Context, table string, opts ...Option) ([]models.Registration, error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("select", "*")
	for _, opt := range opts {
		opt(q)
	}
	return c.do(ctx, http.MethodGet, c.restURL(table, q), nil, "select")
}

// Update applies a partial patch to the single row identified by id.
// Extra filters narrow the match further (used for the assign-once token
// guard). Returns ErrNotFound when no row matched.
func (c *Client) Update(ctx context.Context, table, id string, patch map[string]any, opts ...Option) (*models.Registration, error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}
	q := url.Values{}
	q.Set("id", "eq."+id)
	for _, opt := range opts {
		opt(q)
	}
	rows, err := c.do(ctx, http.MethodPatch, c.restURL(table, q), body, "update")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// insertBody serializes new rows without the server-owned columns; the
// store generates id and created_at on insert.
func insertBody(records []models.Registration) ([]byte, error) {
	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		delete(m, "id")
		delete(m, "created_at")
		rows = append(rows, m)
	}
	return json.Marshal(rows)
}

func (c *Client) restURL(table string, q url.Values) string {
	u := strings.TrimRight(c.cfg.URL, "/") + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, op string) ([]models.Registration, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Prefer", "return=representation")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("store request failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if len(respBody) == 0 {
		return nil, nil
	}
	var rows []models.Registration
	if err := json.Unmarshal(respBody, &rows); err != nil {
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Body: "unexpected response body"}
	}
	return rows, nil
}
