// Package email is a client for the transactional email provider
// (Resend-style HTTP contract).
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/certinal/booth-backend/internal/store"
)

const defaultTimeout = 10 * time.Second

// Config holds provider endpoint, credential and sender address.
type Config struct {
	BaseURL     string
	APIKey      string
	FromAddress string
	Timeout     time.Duration
}

// Message is one outbound transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Client dispatches email through the provider. Failures use the same
// tagged taxonomy as the store client so callers branch on one set of
// error kinds.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New creates an email client.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}, logger: logger}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send dispatches msg and returns the provider's email id. A non-2xx
// response is fatal for the invocation; the client does not retry.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", &store.ConfigError{Missing: "email API key"}
	}
	body, err := json.Marshal(sendRequest{
		From:    c.cfg.FromAddress,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("marshal email: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &store.TransportError{Op: "send email", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &store.TransportError{Op: "send email", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("email dispatch rejected",
			zap.Int("status", resp.StatusCode),
		)
		return "", &store.RemoteError{Op: "send email", Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var out sendResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &store.RemoteError{Op: "send email", Status: resp.StatusCode, Body: "unexpected response body"}
	}
	return out.ID, nil
}
