package license

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateOwnerToken_PersistsTokenAndOwnerSeat(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)
	ctx := context.Background()

	token, err := svc.CreateOwnerToken(ctx, "user-1", 9900, 3, "v2")
	require.NoError(t, err)
	require.Len(t, token.Token, 40)
	require.Equal(t, "user-1", token.OwnerUID)

	loaded, err := store.GetToken(ctx, token.Token)
	require.NoError(t, err)
	require.Equal(t, int64(9900), loaded.Price)
	require.Equal(t, 3, loaded.Quantity)
	require.Equal(t, "v2", loaded.Version)

	members, err := store.MembershipsForToken(ctx, token.Token)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, RoleOwner, members[0].Role)
	require.Equal(t, "user-1", members[0].UID)
}

func TestCreateOwnerToken_RejectsNonPositiveQuantity(t *testing.T) {
	svc := NewService(newTestStore(t))

	_, err := svc.CreateOwnerToken(context.Background(), "user-1", 9900, 0, "v2")
	require.Error(t, err)
}

func TestAddMembership_SeatLimitEnforced(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)
	ctx := context.Background()

	token, err := svc.CreateOwnerToken(ctx, "owner", 9900, 2, "v2")
	require.NoError(t, err)

	// Owner holds seat 1; one invitee fits.
	require.NoError(t, store.AddMembership(ctx, Membership{Token: token.Token, UID: "member-1", Role: RoleMember}))

	err = store.AddMembership(ctx, Membership{Token: token.Token, UID: "member-2", Role: RoleMember})
	require.ErrorIs(t, err, ErrSeatsExhausted)

	members, err := store.MembershipsForToken(ctx, token.Token)
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestAddMembership_UnknownToken(t *testing.T) {
	store := newTestStore(t)

	err := store.AddMembership(context.Background(), Membership{Token: "nope", UID: "u", Role: RoleMember})
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAddMember_IdempotentAcrossRepeatedAcceptance(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)
	ctx := context.Background()

	token, err := svc.CreateOwnerToken(ctx, "owner", 9900, 5, "v2")
	require.NoError(t, err)

	require.NoError(t, svc.AddMember(ctx, token.Token, "member-1"))
	require.NoError(t, svc.AddMember(ctx, token.Token, "member-1"))

	members, err := store.MembershipsForToken(ctx, token.Token)
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestAddMember_UnknownToken(t *testing.T) {
	svc := NewService(newTestStore(t))

	err := svc.AddMember(context.Background(), "missing-token", "member-1")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokensForUser_IncludesMemberList(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)
	ctx := context.Background()

	token, err := svc.CreateOwnerToken(ctx, "owner", 9900, 5, "v2")
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(ctx, token.Token, "member-1"))

	owned, err := svc.TokensForUser(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.Equal(t, RoleOwner, owned[0].Role)
	require.Len(t, owned[0].Members, 2)

	memberView, err := svc.TokensForUser(ctx, "member-1")
	require.NoError(t, err)
	require.Len(t, memberView, 1)
	require.Equal(t, RoleMember, memberView[0].Role)
}

func TestTokensForUser_EmptyForUnknownUser(t *testing.T) {
	svc := NewService(newTestStore(t))

	tokens, err := svc.TokensForUser(context.Background(), "stranger")
	require.NoError(t, err)
	require.Empty(t, tokens)
}

func TestInsertTokenForSession_FirstSightInsertsToken(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)
	ctx := context.Background()

	done, err := store.SessionCompleted(ctx, "cs_123")
	require.NoError(t, err)
	require.False(t, done)

	token, first, err := svc.FulfillSession(ctx, "cs_123", "user-1", 9900, 2, "v2")
	require.NoError(t, err)
	require.True(t, first)

	loaded, err := store.GetToken(ctx, token.Token)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Quantity)

	done, err = store.SessionCompleted(ctx, "cs_123")
	require.NoError(t, err)
	require.True(t, done)
}

func TestInsertTokenForSession_RepeatSessionInsertsNothing(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)
	ctx := context.Background()

	_, first, err := svc.FulfillSession(ctx, "cs_123", "user-1", 9900, 1, "v2")
	require.NoError(t, err)
	require.True(t, first)

	token, first, err := svc.FulfillSession(ctx, "cs_123", "user-1", 9900, 1, "v2")
	require.NoError(t, err)
	require.False(t, first)
	require.Empty(t, token.Token)

	tokens, err := svc.TokensForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
}

func TestGetToken_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetToken(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAddMembership_ConcurrentAcceptancesNeverOversubscribe(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)
	ctx := context.Background()

	token, err := svc.CreateOwnerToken(ctx, "owner", 9900, 3, "v2")
	require.NoError(t, err)

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(n int) {
			errs <- store.AddMembership(ctx, Membership{
				Token: token.Token,
				UID:   fmt.Sprintf("member-%d", n),
				Role:  RoleMember,
			})
		}(i)
	}

	var ok, exhausted int
	for i := 0; i < 8; i++ {
		switch err := <-errs; {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, ErrSeatsExhausted)
			exhausted++
		}
	}
	require.Equal(t, 2, ok)
	require.Equal(t, 6, exhausted)

	members, err := store.MembershipsForToken(ctx, token.Token)
	require.NoError(t, err)
	require.Len(t, members, 3)
}
