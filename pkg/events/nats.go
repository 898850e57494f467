package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

type natsPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("pencraft"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS connected", "url", conn.ConnectedUrl())
	return &natsPublisher{conn: conn}, nil
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, key string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(subject, key, payload)
	if err != nil {
		return err
	}

	return p.conn.Publish(subject, data)
}

func (p *natsPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
