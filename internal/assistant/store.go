package assistant

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Role tags who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation. Messages are never edited.
type Message struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists one conversation per account.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a conversation store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// conversation returns the account's conversation id, creating it on first use.
func (s *Store) conversation(ctx context.Context, accountID string) (string, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, account_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (account_id) DO NOTHING`,
		uuid.NewString(), accountID, s.now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("creating conversation: %w", err)
	}
	var id string
	err = s.db.QueryRowContext(ctx, "SELECT id FROM conversations WHERE account_id = ?", accountID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("reading conversation: %w", err)
	}
	return id, nil
}

// Append adds a message to the account's conversation. The timestamp is
// assigned here, not by the caller.
func (s *Store) Append(ctx context.Context, accountID string, role Role, text string) (*Message, error) {
	convID, err := s.conversation(ctx, accountID)
	if err != nil {
		return nil, err
	}
	m := &Message{Role: role, Text: text, CreatedAt: s.now().UTC()}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, role, text, created_at) VALUES (?, ?, ?, ?)",
		convID, string(role), text, m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading message id: %w", err)
	}
	return m, nil
}

// History returns the account's last limit messages, oldest first.
// A limit of zero or less returns the whole conversation.
func (s *Store) History(ctx context.Context, accountID string, limit int) ([]Message, error) {
	query := `SELECT m.id, m.role, m.text, m.created_at
		FROM messages m JOIN conversations c ON c.id = m.conversation_id
		WHERE c.account_id = ?
		ORDER BY m.id DESC`
	args := []any{accountID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	var msgs []Message
	for rows.Next() {
		var m Message
		var role string
		if err := rows.Scan(&m.ID, &role, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = Role(role)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
