// Package license manages purchased license tokens and team-seat
// membership.
package license

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Role of a user on a token.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

var (
	// ErrSeatsExhausted reports that a token already has quantity members.
	ErrSeatsExhausted = errors.New("no seats left on this license")
	// ErrTokenNotFound reports an unknown token string.
	ErrTokenNotFound = errors.New("license token not found")
)

// Token is a purchased license. Tokens are written once at fulfillment
// and never mutated.
type Token struct {
	Token    string    `json:"token"`
	OwnerUID string    `json:"ownerUid"`
	Price    int64     `json:"price"` // cents
	Quantity int       `json:"quantity"`
	Version  string    `json:"version"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Membership joins a user to a token with a role.
type Membership struct {
	Token string `json:"token"`
	UID   string `json:"uid"`
	Role  string `json:"role"`
}

// Store persists tokens and memberships.
type Store interface {
	InsertToken(ctx context.Context, token Token) error
	// InsertTokenForSession records the billing session id and inserts
	// the token in one transaction. A session id seen before reports
	// first=false and inserts nothing, so a session fulfills at most
	// one token no matter how often it is retried or redelivered.
	InsertTokenForSession(ctx context.Context, sessionID string, token Token) (first bool, err error)
	GetToken(ctx context.Context, token string) (Token, error)
	// AddMembership inserts a membership, failing with ErrSeatsExhausted
	// when the token's seats are full. The seat check and the insert run
	// in one transaction so concurrent acceptances cannot oversubscribe.
	AddMembership(ctx context.Context, m Membership) error
	MembershipsForUser(ctx context.Context, uid string) ([]Membership, error)
	MembershipsForToken(ctx context.Context, token string) ([]Membership, error)
	// SessionCompleted reports whether a billing session id has already
	// been fulfilled.
	SessionCompleted(ctx context.Context, sessionID string) (bool, error)
	Close() error
}

// Service wraps a Store with the token lifecycle rules.
type Service struct {
	store Store
}

// NewService creates a license service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateOwnerToken generates a fresh license token for uid and records
// the owner's membership. Collision safety rests on the 20 random
// bytes, not on a uniqueness probe.
func (s *Service) CreateOwnerToken(ctx context.Context, uid string, price int64, quantity int, version string) (Token, error) {
	token, err := s.newToken(uid, price, quantity, version)
	if err != nil {
		return Token{}, err
	}
	if err := s.store.InsertToken(ctx, token); err != nil {
		return Token{}, err
	}

	slog.Info("License token issued", "uid", uid, "quantity", quantity, "version", version)
	return token, nil
}

// FulfillSession issues the owner token for a completed billing session.
// The session record and the token land in one store transaction, so a
// session that already fulfilled reports first=false without a second
// token, and a failed insert leaves no record behind to block a retry.
func (s *Service) FulfillSession(ctx context.Context, sessionID, uid string, price int64, quantity int, version string) (Token, bool, error) {
	token, err := s.newToken(uid, price, quantity, version)
	if err != nil {
		return Token{}, false, err
	}

	first, err := s.store.InsertTokenForSession(ctx, sessionID, token)
	if err != nil {
		return Token{}, false, err
	}
	if !first {
		return Token{}, false, nil
	}

	slog.Info("License token issued", "uid", uid, "quantity", quantity, "version", version)
	return token, true, nil
}

func (s *Service) newToken(uid string, price int64, quantity int, version string) (Token, error) {
	if quantity < 1 {
		return Token{}, fmt.Errorf("license quantity must be at least 1, got %d", quantity)
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return Token{}, fmt.Errorf("failed to generate license token: %w", err)
	}

	return Token{
		Token:    hex.EncodeToString(raw),
		OwnerUID: uid,
		Price:    price,
		Quantity: quantity,
		Version:  version,
		IssuedAt: time.Now().UTC(),
	}, nil
}

// AddMember accepts an invitation for uid onto token. A user who
// already holds any membership is left alone: acceptance is idempotent
// across re-clicked invitation links.
func (s *Service) AddMember(ctx context.Context, token, uid string) error {
	existing, err := s.store.MembershipsForUser(ctx, uid)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("User already holds a license membership, skipping", "uid", uid)
		return nil
	}

	if _, err := s.store.GetToken(ctx, token); err != nil {
		return err
	}
	return s.store.AddMembership(ctx, Membership{Token: token, UID: uid, Role: RoleMember})
}

// TokensForUser returns every token uid has a membership on, with the
// member list attached.
func (s *Service) TokensForUser(ctx context.Context, uid string) ([]TokenWithMembers, error) {
	memberships, err := s.store.MembershipsForUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	result := make([]TokenWithMembers, 0, len(memberships))
	for _, m := range memberships {
		token, err := s.store.GetToken(ctx, m.Token)
		if err != nil {
			return nil, err
		}
		members, err := s.store.MembershipsForToken(ctx, m.Token)
		if err != nil {
			return nil, err
		}
		result = append(result, TokenWithMembers{Token: token, Role: m.Role, Members: members})
	}
	return result, nil
}

// TokenWithMembers is the dashboard view of a license.
type TokenWithMembers struct {
	Token   Token        `json:"token"`
	Role    string       `json:"role"`
	Members []Membership `json:"members"`
}
