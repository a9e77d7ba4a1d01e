package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig configures the NATS connection.
type NATSConfig struct {
	URL           string
	Subject       string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// NATS receives delivery envelopes published on a subject.
type NATS struct {
	conn    *nats.Conn
	subject string
}

// DialNATS connects to the server in cfg.
func DialNATS(cfg NATSConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("eventchain"),
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.Warn("nats connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("connected to nats", "url", cfg.URL)
	return conn, nil
}

// NewNATS creates a source reading subject over conn.
// The caller keeps ownership of conn.
func NewNATS(conn *nats.Conn, subject string) *NATS {
	return &NATS{conn: conn, subject: subject}
}

// Run implements Source. Messages are handled one at a time in arrival order.
func (n *NATS) Run(ctx context.Context, handle Handler) error {
	msgs := make(chan *nats.Msg, 256)
	sub, err := n.conn.ChanSubscribe(n.subject, msgs)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", n.subject, err)
	}
	defer sub.Unsubscribe()

	slog.Info("listening for deliveries", "subject", n.subject)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			if err := dispatch(ctx, msg.Data, msg.Subject, handle); err != nil {
				return err
			}
		}
	}
}
