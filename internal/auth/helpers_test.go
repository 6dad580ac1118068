package auth

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/betna-immo/betna/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return d
}

const testSecret = "0123456789abcdef-test-secret"

func testIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(testSecret, 0)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}
