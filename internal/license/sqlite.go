package license

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the license database at dbPath.
// Use ":memory:" in tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open license database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY on concurrent transactions.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize license schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tokens (
		token TEXT PRIMARY KEY,
		owner_uid TEXT NOT NULL,
		price INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		version TEXT NOT NULL,
		issued_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS token_members (
		token TEXT NOT NULL,
		uid TEXT NOT NULL,
		role TEXT NOT NULL,
		PRIMARY KEY (token, uid)
	);
	CREATE INDEX IF NOT EXISTS idx_token_members_uid ON token_members(uid);
	CREATE TABLE IF NOT EXISTS completed_sessions (
		session_id TEXT PRIMARY KEY,
		completed_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) InsertToken(ctx context.Context, token Token) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertTokenTx(ctx, tx, token); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertTokenForSession ties the session record and the token insert to
// one transaction: either the session is recorded AND its token exists,
// or neither does. A replayed or redelivered session id commits nothing.
func (s *SQLiteStore) InsertTokenForSession(ctx context.Context, sessionID string, token Token) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO completed_sessions (session_id, completed_at) VALUES (?, ?)",
		sessionID, time.Now().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to record session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := insertTokenTx(ctx, tx, token); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit fulfillment: %w", err)
	}
	return true, nil
}

func insertTokenTx(ctx context.Context, tx *sql.Tx, token Token) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO tokens (token, owner_uid, price, quantity, version, issued_at) VALUES (?, ?, ?, ?, ?, ?)",
		token.Token, token.OwnerUID, token.Price, token.Quantity, token.Version, token.IssuedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO token_members (token, uid, role) VALUES (?, ?, ?)",
		token.Token, token.OwnerUID, RoleOwner,
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner membership: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetToken(ctx context.Context, token string) (Token, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT token, owner_uid, price, quantity, version, issued_at FROM tokens WHERE token = ?",
		token,
	)

	var t Token
	var issuedAt int64
	err := row.Scan(&t.Token, &t.OwnerUID, &t.Price, &t.Quantity, &t.Version, &issuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Token{}, ErrTokenNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("failed to load token: %w", err)
	}
	t.IssuedAt = time.Unix(issuedAt, 0).UTC()
	return t, nil
}

// AddMembership checks the seat count and inserts inside one
// transaction, so two racing invitation acceptances cannot both pass
// the check and oversubscribe the license.
func (s *SQLiteStore) AddMembership(ctx context.Context, m Membership) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var quantity, used int
	row := tx.QueryRowContext(ctx,
		`SELECT t.quantity, (SELECT COUNT(*) FROM token_members WHERE token = t.token)
		 FROM tokens t WHERE t.token = ?`, m.Token)
	if err := row.Scan(&quantity, &used); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to count seats: %w", err)
	}
	if used >= quantity {
		return ErrSeatsExhausted
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO token_members (token, uid, role) VALUES (?, ?, ?)",
		m.Token, m.UID, m.Role,
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) MembershipsForUser(ctx context.Context, uid string) ([]Membership, error) {
	return s.queryMemberships(ctx, "SELECT token, uid, role FROM token_members WHERE uid = ?", uid)
}

func (s *SQLiteStore) MembershipsForToken(ctx context.Context, token string) ([]Membership, error) {
	return s.queryMemberships(ctx, "SELECT token, uid, role FROM token_members WHERE token = ?", token)
}

func (s *SQLiteStore) queryMemberships(ctx context.Context, query string, arg any) ([]Membership, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memberships []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.Token, &m.UID, &m.Role); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (s *SQLiteStore) SessionCompleted(ctx context.Context, sessionID string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM completed_sessions WHERE session_id = ?)", sessionID)

	var done bool
	if err := row.Scan(&done); err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return done, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
