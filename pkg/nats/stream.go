// Package nats moves monitor events between instances over JetStream. One
// stream, MONITOR, holds every event type; subjects are monitor.<TYPE> so a
// consumer can filter to the types it cares about.
package nats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamName is the JetStream stream every monitor instance shares.
const StreamName = "MONITOR"

const subjectPrefix = "monitor."

// streamMaxAge bounds replay for durable consumers that were offline. Three
// days covers a weekend outage without letting the stream grow unbounded.
const streamMaxAge = 72 * time.Hour

// Subject returns the bus subject for an event type, monitor.ALERT_RAISED
// style. Subscribers filter on these.
func Subject(eventType string) string {
	return subjectPrefix + eventType
}

// eventTypeOf recovers the event type from a delivered subject.
func eventTypeOf(subject string) string {
	return strings.TrimPrefix(subject, subjectPrefix)
}

// connect dials NATS and opens a JetStream context. Both endpoints use the
// same options: retry the initial dial, give up reconnecting after five
// attempts and let the caller's supervisor decide what to do.
func connect(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return nc, js, nil
}

// ensureStream creates or updates the MONITOR stream. LimitsPolicy keeps
// messages until MaxAge even after every consumer has acked, so an instance
// joining late still mirrors recent alerts.
func ensureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    streamMaxAge,
	})
	return err
}
