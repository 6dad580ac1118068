package assistant

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/betna-immo/betna/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})
	return d
}

func TestStoreAppendAndHistory(t *testing.T) {
	s := NewStore(testDB(t))
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	texts := []string{"Bonjour", "Bonjour ! Que cherchez-vous ?", "Un studio à Cocody", "Quel budget ?"}
	for i, text := range texts {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		m, err := s.Append(ctx, "u1", role, text)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if m.ID == 0 || m.CreatedAt.IsZero() {
			t.Errorf("message missing id or timestamp: %+v", m)
		}
	}
	if _, err := s.Append(ctx, "u2", RoleUser, "autre compte"); err != nil {
		t.Fatalf("Append u2: %v", err)
	}

	all, err := s.History(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len = %d, want 4", len(all))
	}
	for i, m := range all {
		if m.Text != texts[i] {
			t.Errorf("all[%d] = %q, want %q", i, m.Text, texts[i])
		}
	}
	if all[1].Role != RoleAssistant {
		t.Errorf("all[1].Role = %q, want assistant", all[1].Role)
	}
	if !all[0].CreatedAt.Before(all[3].CreatedAt) {
		t.Error("expected server timestamps in append order")
	}

	last, err := s.History(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("History limit: %v", err)
	}
	if len(last) != 2 || last[0].Text != texts[2] || last[1].Text != texts[3] {
		t.Errorf("last two = %+v", last)
	}
}

func TestStoreHistory_Empty(t *testing.T) {
	s := NewStore(testDB(t))
	msgs, err := s.History(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("len = %d, want 0", len(msgs))
	}
}
