// Package bus publishes relay lifecycle events to NATS for external
// observers (dashboards, archivers). Entirely optional: the relay runs fine
// without a broker configured.
package bus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects for relay lifecycle events.
const (
	SubjectReceived    = "imsg.relay.received"
	SubjectReplySent   = "imsg.relay.reply.sent"
	SubjectReplyFailed = "imsg.relay.reply.failed"
)

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewClient connects to NATS with retry-friendly options. token may be empty.
func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

// Publish marshals data as JSON and publishes it on subject.
func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// Close drains the connection.
func (c *Client) Close() {
	c.conn.Close()
}
