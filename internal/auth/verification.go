package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const verificationExpiry = 24 * time.Hour

// VerificationStore manages one-shot email verification tokens.
type VerificationStore struct {
	db *sql.DB
}

// NewVerificationStore creates a verification token store.
func NewVerificationStore(db *sql.DB) *VerificationStore {
	return &VerificationStore{db: db}
}

// Create generates a token for accountID and returns it.
func (s *VerificationStore) Create(ctx context.Context, accountID string) (string, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO verification_tokens (token, account_id, expires_at) VALUES (?, ?, ?)",
		token, accountID, time.Now().UTC().Add(verificationExpiry),
	); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	return token, nil
}

// Consume checks a token, marks it used and returns its account id.
func (s *VerificationStore) Consume(ctx context.Context, token string) (string, error) {
	var accountID string
	var used int
	var expiresAt time.Time

	err := s.db.QueryRowContext(ctx,
		"SELECT account_id, used, expires_at FROM verification_tokens WHERE token = ?",
		token,
	).Scan(&accountID, &used, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("querying token: %w", err)
	}

	if used != 0 {
		return "", fmt.Errorf("%w: already used", ErrInvalidToken)
	}
	if time.Now().After(expiresAt) {
		return "", fmt.Errorf("%w: expired", ErrInvalidToken)
	}

	// The used = 0 guard makes concurrent consumers race for a single winner.
	result, err := s.db.ExecContext(ctx,
		"UPDATE verification_tokens SET used = 1 WHERE token = ? AND used = 0",
		token,
	)
	if err != nil {
		return "", fmt.Errorf("marking token used: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return "", fmt.Errorf("%w: already used", ErrInvalidToken)
	}

	return accountID, nil
}

// Cleanup removes expired tokens and reports how many were removed.
func (s *VerificationStore) Cleanup(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM verification_tokens WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleaning up tokens: %w", err)
	}
	return result.RowsAffected()
}
