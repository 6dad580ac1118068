package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/betna-immo/betna/internal/account"
)

// ErrCredentialNotFound is returned when deleting a passkey the account does not own.
var ErrCredentialNotFound = errors.New("passkey not found")

// PasskeyUser implements webauthn.User for an account.
type PasskeyUser struct {
	account     *account.Account
	credentials []webauthn.Credential
}

// NewPasskeyUser creates a PasskeyUser for a.
func NewPasskeyUser(a *account.Account, credentials []webauthn.Credential) *PasskeyUser {
	return &PasskeyUser{account: a, credentials: credentials}
}

// WebAuthnID returns the account id, which is also the discoverable-login user handle.
func (u *PasskeyUser) WebAuthnID() []byte { return []byte(u.account.ID) }

// WebAuthnName returns the email.
func (u *PasskeyUser) WebAuthnName() string { return u.account.Email }

// WebAuthnDisplayName returns the full name, or the email when unset.
func (u *PasskeyUser) WebAuthnDisplayName() string {
	if u.account.FullName != "" {
		return u.account.FullName
	}
	return u.account.Email
}

// WebAuthnCredentials returns the stored credentials.
func (u *PasskeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// Account returns the wrapped account.
func (u *PasskeyUser) Account() *account.Account { return u.account }

// PasskeyStore manages passkey credentials in SQLite.
type PasskeyStore struct {
	db *sql.DB
}

// NewPasskeyStore creates a passkey store.
func NewPasskeyStore(db *sql.DB) *PasskeyStore {
	return &PasskeyStore{db: db}
}

// StoredCredential is a passkey credential with metadata.
type StoredCredential struct {
	ID         string              `json:"id"`
	AccountID  string              `json:"account_id"`
	Name       string              `json:"name"`
	Credential webauthn.Credential `json:"-"`
}

// Save stores a new passkey credential.
func (s *PasskeyStore) Save(ctx context.Context, accountID, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}

	id := fmt.Sprintf("%x", cred.ID)
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO passkey_credentials (id, account_id, name, credential_json) VALUES (?, ?, ?, ?)",
		id, accountID, name, string(data),
	); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	return nil
}

// ListByAccount returns all credentials of an account.
func (s *PasskeyStore) ListByAccount(ctx context.Context, accountID string) ([]StoredCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account_id, name, credential_json FROM passkey_credentials WHERE account_id = ? ORDER BY created_at",
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("closing rows", "err", err)
		}
	}()

	var result []StoredCredential
	for rows.Next() {
		var sc StoredCredential
		var data string
		if err := rows.Scan(&sc.ID, &sc.AccountID, &sc.Name, &data); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sc.Credential); err != nil {
			return nil, fmt.Errorf("unmarshaling credential: %w", err)
		}
		result = append(result, sc)
	}

	return result, rows.Err()
}

// WebAuthnCredentials returns just the webauthn.Credential slice for an account.
func (s *PasskeyStore) WebAuthnCredentials(ctx context.Context, accountID string) ([]webauthn.Credential, error) {
	stored, err := s.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	creds := make([]webauthn.Credential, len(stored))
	for i, sc := range stored {
		creds[i] = sc.Credential
	}

	return creds, nil
}

// UpdateCredential stores the refreshed authenticator state (sign count, flags) after a login.
func (s *PasskeyStore) UpdateCredential(ctx context.Context, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE passkey_credentials SET credential_json = ? WHERE id = ?",
		string(data), fmt.Sprintf("%x", cred.ID),
	); err != nil {
		return fmt.Errorf("updating credential: %w", err)
	}
	return nil
}

// Delete removes a credential owned by accountID.
func (s *PasskeyStore) Delete(ctx context.Context, id, accountID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM passkey_credentials WHERE id = ? AND account_id = ?",
		id, accountID,
	)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return ErrCredentialNotFound
	}

	return nil
}
