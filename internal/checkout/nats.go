package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSQueue publishes and consumes fulfillment jobs over a JetStream
// stream, decoupling webhook acknowledgment from token creation.
type NATSQueue struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	stream  string
	subject string
}

// NewNATSQueue connects to NATS and ensures the fulfillment stream
// exists.
func NewNATSQueue(ctx context.Context, url, subject string) (*NATSQueue, error) {
	if url == "" {
		return nil, fmt.Errorf("nats queue requires a url")
	}
	if subject == "" {
		subject = "site.fulfillment"
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamName := "SITE_FULFILLMENT"
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subject},
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure fulfillment stream: %w", err)
	}

	slog.Info("Fulfillment queue initialized", "url", url, "subject", subject)
	return &NATSQueue{conn: conn, js: js, stream: streamName, subject: subject}, nil
}

// Publish enqueues one completed session.
func (q *NATSQueue) Publish(ctx context.Context, session CompletedSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal fulfillment job: %w", err)
	}
	// Session id doubles as the dedupe id across webhook replays.
	_, err = q.js.Publish(ctx, q.subject, payload, jetstream.WithMsgID(session.SessionID))
	if err != nil {
		return fmt.Errorf("failed to publish fulfillment job: %w", err)
	}
	return nil
}

// Consume runs the fulfillment worker until ctx is cancelled. Failed
// jobs are negatively acknowledged and redelivered by the server.
func (q *NATSQueue) Consume(ctx context.Context, fulfiller *Fulfiller) error {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, q.stream, jetstream.ConsumerConfig{
		Durable:    "fulfillment-worker",
		AckPolicy:  jetstream.AckExplicitPolicy,
		AckWait:    30 * time.Second,
		MaxDeliver: 5,
	})
	if err != nil {
		return fmt.Errorf("failed to create fulfillment consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		var session CompletedSession
		if err := json.Unmarshal(msg.Data(), &session); err != nil {
			slog.Error("Dropping malformed fulfillment job", "error", err)
			_ = msg.Term()
			return
		}
		if err := fulfiller.Fulfill(ctx, session); err != nil {
			slog.Error("Fulfillment failed, will retry", "session_id", session.SessionID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start fulfillment consumer: %w", err)
	}

	<-ctx.Done()
	consumeCtx.Stop()
	return nil
}

// Close drains the underlying connection.
func (q *NATSQueue) Close() {
	if err := q.conn.Drain(); err != nil {
		slog.Warn("Failed to drain NATS connection", "error", err)
	}
}
