package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations is an ordered list of SQL statements to run.
// Every statement is idempotent so the list can be replayed on each start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id             TEXT    PRIMARY KEY,
		email          TEXT    NOT NULL UNIQUE,
		password_hash  TEXT    NOT NULL DEFAULT '',
		full_name      TEXT    NOT NULL DEFAULT '',
		phone          TEXT    NOT NULL DEFAULT '',
		role           TEXT    NOT NULL CHECK (role IN ('client', 'proprietaire', 'admin')),
		status         TEXT    NOT NULL DEFAULT 'actif' CHECK (status IN ('actif', 'bloqué')),
		email_verified INTEGER NOT NULL DEFAULT 0,
		plan           TEXT    NOT NULL DEFAULT 'none',
		plan_active    INTEGER NOT NULL DEFAULT 0,
		plan_started   DATETIME,
		plan_ends      DATETIME,
		created_at     DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id          TEXT    PRIMARY KEY,
		owner_id    TEXT    NOT NULL,
		title       TEXT    NOT NULL,
		location    TEXT    NOT NULL DEFAULT '',
		price       INTEGER NOT NULL CHECK (price > 0),
		description TEXT    NOT NULL DEFAULT '',
		bedrooms    INTEGER CHECK (bedrooms IS NULL OR bedrooms >= 0),
		bathrooms   INTEGER CHECK (bathrooms IS NULL OR bathrooms >= 0),
		stay_type   TEXT    NOT NULL CHECK (stay_type IN ('long', 'short')),
		state       TEXT    NOT NULL DEFAULT 'pending' CHECK (state IN ('pending', 'verified')),
		agent_name  TEXT    NOT NULL DEFAULT '',
		agent_phone TEXT    NOT NULL DEFAULT '',
		agent_email TEXT    NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_state ON listings(state)`,
	`CREATE TABLE IF NOT EXISTS listing_images (
		listing_id TEXT    NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		position   INTEGER NOT NULL,
		url        TEXT    NOT NULL,
		PRIMARY KEY (listing_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		account_id TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS verification_tokens (
		token      TEXT     PRIMARY KEY,
		account_id TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		used       INTEGER  DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT    PRIMARY KEY,
		account_id      TEXT    NOT NULL,
		name            TEXT    NOT NULL DEFAULT '',
		credential_json TEXT    NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT     PRIMARY KEY,
		account_id TEXT     NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              INTEGER  PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT     NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role            TEXT     NOT NULL CHECK (role IN ('user', 'assistant')),
		text            TEXT     NOT NULL,
		created_at      DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id         TEXT     PRIMARY KEY,
		account_id TEXT     NOT NULL,
		listing_id TEXT     NOT NULL,
		title      TEXT     NOT NULL DEFAULT '',
		location   TEXT     NOT NULL DEFAULT '',
		price      INTEGER  NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		UNIQUE (account_id, listing_id)
	)`,
	`CREATE TABLE IF NOT EXISTS visit_requests (
		id         TEXT     PRIMARY KEY,
		account_id TEXT     NOT NULL,
		listing_id TEXT     NOT NULL,
		owner_id   TEXT     NOT NULL,
		title      TEXT     NOT NULL DEFAULT '',
		location   TEXT     NOT NULL DEFAULT '',
		price      INTEGER  NOT NULL DEFAULT 0,
		visit_date TEXT     NOT NULL,
		note       TEXT     NOT NULL DEFAULT '',
		status     TEXT     NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"accounts", "stripe_customer", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}

	found := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			closeRows(rows)
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return fmt.Errorf("iterating columns: %w", err)
	}
	closeRows(rows)

	if found {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Warn("closing rows", "err", err)
	}
}
