package store

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	heartbeatInterval = 30 * time.Second
	reconnectBackoff  = 5 * time.Second
)

// realtimeMessage is the phoenix-channel envelope used by the store's
// realtime websocket.
type realtimeMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// Subscription is a live change-notification channel for one table.
// Close stops notifications and is safe to call more than once,
// including during teardown races.
type Subscription struct {
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// Close tears the subscription down. Idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// Subscribe opens a websocket to the store's realtime endpoint and joins
// the change channel for table. onChange is invoked with no payload on
// every row change; subscribers must re-fetch rather than patch local
// state. The connection is re-dialed with backoff until Close.
func (c *Client) Subscribe(ctx context.Context, table string, onChange func()) (*Subscription, error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}
	wsURL, err := c.realtimeURL()
	if err != nil {
		return nil, &ConfigError{Missing: "valid store URL"}
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for {
			if err := c.runConn(subCtx, wsURL, table, onChange); err != nil {
				c.logger.Warn("realtime connection lost", zap.Error(err))
			}
			select {
			case <-subCtx.Done():
				return
			case <-time.After(reconnectBackoff):
			}
		}
	}()
	return sub, nil
}

func (c *Client) realtimeURL() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil || u.Host == "" {
		return "", err
	}
	scheme := "wss"
	if u.Scheme == "http" {
		scheme = "ws"
	}
	return scheme + "://" + u.Host + "/realtime/v1/websocket?apikey=" + url.QueryEscape(c.cfg.APIKey) + "&vsn=1.0.0", nil
}

// runConn dials, joins the table channel, heartbeats, and pumps incoming
// change events into onChange until the connection drops or ctx is done.
func (c *Client) runConn(ctx context.Context, wsURL, table string, onChange func()) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	topic := "realtime:public:" + table
	join := realtimeMessage{
		Topic: topic,
		Event: "phx_join",
		Payload: json.RawMessage(`{"config":{"postgres_changes":[{"event":"*","schema":"public","table":"` + table + `"}]}}`),
		Ref:   "1",
	}
	if err := conn.WriteJSON(join); err != nil {
		return err
	}
	c.logger.Info("realtime channel joined", zap.String("table", table))

	// Read pump: one goroutine owns reads, the main loop owns writes.
	events := make(chan realtimeMessage)
	readErr := make(chan error, 1)
	go func() {
		defer close(events)
		for {
			var msg realtimeMessage
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}
			select {
			case events <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	ref := 2
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case err := <-readErr:
			return err
		case <-ticker.C:
			hb := realtimeMessage{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage(`{}`),
				Ref:     strconv.Itoa(ref),
			}
			ref++
			if err := conn.WriteJSON(hb); err != nil {
				return err
			}
		case msg, ok := <-events:
			if !ok {
				return nil
			}
			if isChangeEvent(msg.Event) {
				onChange()
			}
		}
	}
}

func isChangeEvent(event string) bool {
	switch strings.ToUpper(event) {
	case "POSTGRES_CHANGES", "INSERT", "UPDATE", "DELETE":
		return true
	}
	return false
}
