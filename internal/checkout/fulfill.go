package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/remixweb/site/internal/license"
	"github.com/remixweb/site/internal/metrics"
)

// CompletedSession is the slice of a checkout session fulfillment needs.
type CompletedSession struct {
	SessionID string `json:"session_id"`
	UID       string `json:"uid"`
	Amount    int64  `json:"amount"`
	Quantity  int    `json:"quantity"`
	Version   string `json:"version"`
}

// Publisher hands completed sessions to an asynchronous fulfillment
// worker. Nil publisher means fulfillment runs inline.
type Publisher interface {
	Publish(ctx context.Context, session CompletedSession) error
}

// Fulfiller turns completed checkout sessions into license tokens,
// exactly once per session id.
type Fulfiller struct {
	licenses  *license.Service
	store     license.Store
	publisher Publisher
	recorder  metrics.Recorder
}

// NewFulfiller wires fulfillment. publisher may be nil.
func NewFulfiller(licenses *license.Service, store license.Store, publisher Publisher, recorder metrics.Recorder) *Fulfiller {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Fulfiller{licenses: licenses, store: store, publisher: publisher, recorder: recorder}
}

// HandleCompletedSession is the webhook entry point. Replayed webhooks
// for an already-fulfilled session are acknowledged without effect.
// Nothing is recorded before the token lands (or the job is enqueued),
// so an error here leaves the provider free to retry.
func (f *Fulfiller) HandleCompletedSession(ctx context.Context, session CompletedSession) error {
	done, err := f.store.SessionCompleted(ctx, session.SessionID)
	if err != nil {
		return err
	}
	if done {
		slog.Info("Checkout session already fulfilled, skipping", "session_id", session.SessionID)
		f.recorder.ObserveFulfillment("duplicate")
		return nil
	}

	if f.publisher != nil {
		if err := f.publisher.Publish(ctx, session); err != nil {
			return fmt.Errorf("failed to enqueue fulfillment: %w", err)
		}
		slog.Info("Fulfillment enqueued", "session_id", session.SessionID)
		return nil
	}
	return f.Fulfill(ctx, session)
}

// Fulfill creates the owner token for a completed session. Called
// inline or by the queue worker; safe to call again on redelivery
// because the session record and the token commit together.
func (f *Fulfiller) Fulfill(ctx context.Context, session CompletedSession) error {
	token, first, err := f.licenses.FulfillSession(ctx, session.SessionID, session.UID, session.Amount, session.Quantity, session.Version)
	if err != nil {
		f.recorder.ObserveFulfillment("error")
		return fmt.Errorf("failed to fulfill session %s: %w", session.SessionID, err)
	}
	if !first {
		slog.Info("Checkout session already fulfilled, skipping", "session_id", session.SessionID)
		f.recorder.ObserveFulfillment("duplicate")
		return nil
	}

	f.recorder.ObserveFulfillment("fulfilled")
	// Log only a prefix; the full token string is the credential.
	slog.Info("Checkout session fulfilled",
		"session_id", session.SessionID,
		"uid", session.UID,
		"quantity", strconv.Itoa(session.Quantity),
		"token_prefix", token.Token[:8])
	return nil
}
