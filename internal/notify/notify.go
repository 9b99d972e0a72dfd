// Package notify publishes registration outcomes for other services.
//
// Events go to <subject>.<outcome>, for example nautwatch.projects.registered.
// Publishing is best effort: a failure is logged and counted by the caller
// and never changes an outcome.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Event describes one finished registration attempt.
type Event struct {
	Name          string    `json:"name"`
	ContainerPath string    `json:"container_path"`
	HostPath      string    `json:"host_path"`
	Outcome       string    `json:"outcome"`
	Reason        string    `json:"reason"`
	ProjectID     int64     `json:"project_id,omitempty"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Notifier publishes events.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// NATS publishes events as JSON on a NATS connection.
type NATS struct {
	nc      *nats.Conn
	subject string
}

// Connect dials url and returns a NATS notifier publishing under subject.
func Connect(url, subject string, opts ...nats.Option) (*NATS, error) {
	opts = append([]nats.Option{
		nats.Name("nautwatch"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1 * time.Second),
	}, opts...)

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return NewNATS(nc, subject), nil
}

// NewNATS wraps an existing connection.
func NewNATS(nc *nats.Conn, subject string) *NATS {
	return &NATS{nc: nc, subject: subject}
}

// Subject returns the subject an event is published on.
func (n *NATS) Subject(ev Event) string {
	return n.subject + "." + ev.Outcome
}

// Publish sends ev. The context is checked before publishing; the NATS
// client buffers the message itself.
func (n *NATS) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.nc.Publish(n.Subject(ev), data); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Outcome, err)
	}
	return nil
}

// Close flushes buffered messages and closes the connection.
func (n *NATS) Close() error {
	if n.nc.IsClosed() {
		return nil
	}
	return n.nc.Drain()
}
