package favorite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/betna-immo/betna/internal/db"
	"github.com/betna-immo/betna/internal/listing"
)

func testSetup(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	listings := listing.NewRepository(d)
	for i, title := range []string{"Villa F4", "Studio"} {
		ts := time.Now().UTC().Add(time.Duration(i) * time.Minute)
		l := &listing.Listing{
			ID: []string{"l1", "l2"}[i], OwnerID: "owner", Title: title, Location: "Cocody", Price: int64(100000 * (i + 1)),
			StayType: listing.StayLong, Images: []string{"x"}, State: listing.StateVerified, CreatedAt: ts, UpdatedAt: ts,
		}
		if err := listings.Insert(context.Background(), l); err != nil {
			t.Fatalf("insert listing: %v", err)
		}
	}
	return NewRepository(d, listings)
}

func TestAddAndList(t *testing.T) {
	r := testSetup(t)
	ctx := context.Background()

	f, err := r.Add(ctx, "a1", "l1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if f.Title != "Villa F4" || f.Price != 100000 || f.Location != "Cocody" {
		t.Errorf("display fields = %+v", f)
	}

	again, err := r.Add(ctx, "a1", "l1")
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if again.ID != f.ID {
		t.Errorf("duplicate add created %s, want existing %s", again.ID, f.ID)
	}

	if _, err := r.Add(ctx, "a1", "l2"); err != nil {
		t.Fatalf("add second: %v", err)
	}

	got, err := r.ListByAccount(ctx, "a1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d favorites, want 2", len(got))
	}

	others, err := r.ListByAccount(ctx, "a2")
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(others) != 0 {
		t.Errorf("other account sees %d favorites", len(others))
	}
}

func TestAddMissingListing(t *testing.T) {
	r := testSetup(t)

	if _, err := r.Add(context.Background(), "a1", "ghost"); !errors.Is(err, listing.ErrNotFound) {
		t.Errorf("err = %v, want listing.ErrNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	r := testSetup(t)
	ctx := context.Background()

	f, err := r.Add(ctx, "a1", "l1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := r.Remove(ctx, "a2", f.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("other account remove err = %v, want ErrForbidden", err)
	}
	if err := r.Remove(ctx, "a1", f.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := r.Remove(ctx, "a1", f.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}
}
