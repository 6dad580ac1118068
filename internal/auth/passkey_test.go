package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/betna-immo/betna/internal/account"
)

func TestPasskeySaveAndList(t *testing.T) {
	store := NewPasskeyStore(testDB(t))
	ctx := context.Background()

	cred := &webauthn.Credential{
		ID:        []byte("test-credential-id"),
		PublicKey: []byte("test-public-key"),
	}

	if err := store.Save(ctx, "acct-1", "Mon téléphone", cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, err := store.ListByAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d credentials, want 1", len(stored))
	}
	if stored[0].Name != "Mon téléphone" || stored[0].AccountID != "acct-1" {
		t.Errorf("stored = %+v", stored[0])
	}
	if string(stored[0].Credential.ID) != string(cred.ID) {
		t.Errorf("credential ID mismatch")
	}

	creds, err := store.WebAuthnCredentials(ctx, "acct-1")
	if err != nil {
		t.Fatalf("webauthn credentials: %v", err)
	}
	if len(creds) != 1 {
		t.Errorf("got %d credentials, want 1", len(creds))
	}
}

func TestPasskeyUpdateCredential(t *testing.T) {
	store := NewPasskeyStore(testDB(t))
	ctx := context.Background()

	cred := &webauthn.Credential{ID: []byte("cred"), PublicKey: []byte("key")}
	if err := store.Save(ctx, "acct-1", "Key", cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	cred.Authenticator.SignCount = 7
	if err := store.UpdateCredential(ctx, cred); err != nil {
		t.Fatalf("update: %v", err)
	}

	creds, err := store.WebAuthnCredentials(ctx, "acct-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if creds[0].Authenticator.SignCount != 7 {
		t.Errorf("sign count = %d, want 7", creds[0].Authenticator.SignCount)
	}
}

func TestPasskeyDelete(t *testing.T) {
	store := NewPasskeyStore(testDB(t))
	ctx := context.Background()

	cred := &webauthn.Credential{ID: []byte("delete-me"), PublicKey: []byte("key")}
	if err := store.Save(ctx, "acct-1", "To Delete", cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	id := fmt.Sprintf("%x", cred.ID)
	if err := store.Delete(ctx, id, "intruder"); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("delete by other account: err = %v, want ErrCredentialNotFound", err)
	}
	if err := store.Delete(ctx, id, "acct-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	stored, err := store.ListByAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("got %d credentials after delete, want 0", len(stored))
	}
}

func TestPasskeyUser(t *testing.T) {
	a := &account.Account{ID: "acct-1", Email: "awa@betna.td"}
	user := NewPasskeyUser(a, []webauthn.Credential{{ID: []byte("test")}})

	if string(user.WebAuthnID()) != "acct-1" {
		t.Errorf("id = %q", user.WebAuthnID())
	}
	if user.WebAuthnName() != "awa@betna.td" {
		t.Errorf("name = %q", user.WebAuthnName())
	}
	if user.WebAuthnDisplayName() != "awa@betna.td" {
		t.Errorf("display name falls back to email, got %q", user.WebAuthnDisplayName())
	}

	a.FullName = "Awa Mahamat"
	if user.WebAuthnDisplayName() != "Awa Mahamat" {
		t.Errorf("display name = %q", user.WebAuthnDisplayName())
	}
	if len(user.WebAuthnCredentials()) != 1 {
		t.Errorf("credentials = %d, want 1", len(user.WebAuthnCredentials()))
	}
}
