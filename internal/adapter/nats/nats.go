// Package nats implements the publisher port using NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/batonworks/baton/internal/resilience"
)

const streamName = "BATON"

// Breaker settings for publishes. A broker outage trips after a few failed
// publishes so mutations stop paying the publish timeout.
const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// Publisher implements messagequeue.Publisher using NATS JetStream.
type Publisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	breaker *resilience.Breaker
}

// Connect establishes a connection to NATS and ensures the JetStream stream
// exists.
func Connect(ctx context.Context, url string) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"requirements.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Publisher{
		nc:      nc,
		js:      js,
		breaker: resilience.NewBreaker(breakerThreshold, breakerCooldown),
	}, nil
}

// JetStream exposes the underlying JetStream context so other adapters can
// share the connection.
func (p *Publisher) JetStream() jetstream.JetStream {
	return p.js
}

// Publish sends a message to the given subject. While the breaker is open,
// publishes fail fast with resilience.ErrCircuitOpen.
func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	err := p.breaker.Execute(func() error {
		_, err := p.js.Publish(ctx, subject, data)
		return err
	})
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Close shuts down the NATS connection.
func (p *Publisher) Close() error {
	p.nc.Close()
	return nil
}
