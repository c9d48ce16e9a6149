package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remixweb/site/internal/license"
)

type capturePublisher struct {
	published []CompletedSession
}

func (p *capturePublisher) Publish(_ context.Context, session CompletedSession) error {
	p.published = append(p.published, session)
	return nil
}

type failingPublisher struct {
	calls int
}

func (p *failingPublisher) Publish(context.Context, CompletedSession) error {
	p.calls++
	return errors.New("nats: connection closed")
}

func newFulfillStore(t *testing.T) license.Store {
	t.Helper()
	store, err := license.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHandleCompletedSession_InlineFulfillmentIssuesToken(t *testing.T) {
	store := newFulfillStore(t)
	licenses := license.NewService(store)
	fulfiller := NewFulfiller(licenses, store, nil, nil)
	ctx := context.Background()

	session := CompletedSession{
		SessionID: "cs_1",
		UID:       "user-1",
		Amount:    9900,
		Quantity:  2,
		Version:   "v2",
	}
	require.NoError(t, fulfiller.HandleCompletedSession(ctx, session))

	tokens, err := licenses.TokensForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	require.Equal(t, 2, tokens[0].Token.Quantity)
	require.Equal(t, "v2", tokens[0].Token.Version)
}

func TestHandleCompletedSession_ReplayedWebhookIsNoOp(t *testing.T) {
	store := newFulfillStore(t)
	licenses := license.NewService(store)
	fulfiller := NewFulfiller(licenses, store, nil, nil)
	ctx := context.Background()

	session := CompletedSession{SessionID: "cs_1", UID: "user-1", Amount: 9900, Quantity: 1, Version: "v2"}
	require.NoError(t, fulfiller.HandleCompletedSession(ctx, session))
	require.NoError(t, fulfiller.HandleCompletedSession(ctx, session))
	require.NoError(t, fulfiller.HandleCompletedSession(ctx, session))

	tokens, err := licenses.TokensForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
}

func TestHandleCompletedSession_PublisherDefersFulfillment(t *testing.T) {
	store := newFulfillStore(t)
	licenses := license.NewService(store)
	publisher := &capturePublisher{}
	fulfiller := NewFulfiller(licenses, store, publisher, nil)
	ctx := context.Background()

	session := CompletedSession{SessionID: "cs_1", UID: "user-1", Amount: 9900, Quantity: 1, Version: "v2"}
	require.NoError(t, fulfiller.HandleCompletedSession(ctx, session))

	require.Len(t, publisher.published, 1)
	require.Equal(t, "cs_1", publisher.published[0].SessionID)

	// No token until the worker runs.
	tokens, err := licenses.TokensForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, tokens)

	require.NoError(t, fulfiller.Fulfill(ctx, session))
	tokens, err = licenses.TokensForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
}

func TestHandleCompletedSession_PublishFailureLeavesSessionRetryable(t *testing.T) {
	store := newFulfillStore(t)
	licenses := license.NewService(store)
	publisher := &failingPublisher{}
	fulfiller := NewFulfiller(licenses, store, publisher, nil)
	ctx := context.Background()

	session := CompletedSession{SessionID: "cs_1", UID: "user-1", Amount: 9900, Quantity: 1, Version: "v2"}
	require.Error(t, fulfiller.HandleCompletedSession(ctx, session))
	require.Equal(t, 1, publisher.calls)

	// The failed attempt must not have recorded the session, or the
	// provider's retry would be swallowed and the customer left tokenless.
	done, err := store.SessionCompleted(ctx, session.SessionID)
	require.NoError(t, err)
	require.False(t, done)

	// Retry with the queue back up: enqueued again, worker mints the token.
	working := &capturePublisher{}
	fulfiller = NewFulfiller(licenses, store, working, nil)
	require.NoError(t, fulfiller.HandleCompletedSession(ctx, session))
	require.Len(t, working.published, 1)
	require.NoError(t, fulfiller.Fulfill(ctx, working.published[0]))

	tokens, err := licenses.TokensForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
}

func TestFulfill_RedeliveredJobMintsOneToken(t *testing.T) {
	store := newFulfillStore(t)
	licenses := license.NewService(store)
	fulfiller := NewFulfiller(licenses, store, nil, nil)
	ctx := context.Background()

	session := CompletedSession{SessionID: "cs_1", UID: "user-1", Amount: 9900, Quantity: 1, Version: "v2"}
	// A lost ack redelivers the job; the second run must be a no-op.
	require.NoError(t, fulfiller.Fulfill(ctx, session))
	require.NoError(t, fulfiller.Fulfill(ctx, session))

	tokens, err := licenses.TokensForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
}

func TestFulfill_InvalidQuantityReported(t *testing.T) {
	store := newFulfillStore(t)
	fulfiller := NewFulfiller(license.NewService(store), store, nil, nil)

	err := fulfiller.Fulfill(context.Background(), CompletedSession{
		SessionID: "cs_bad",
		UID:       "user-1",
		Quantity:  0,
	})
	require.Error(t, err)
}
