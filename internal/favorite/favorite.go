// Package favorite stores the listings an account has bookmarked.
package favorite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/betna-immo/betna/internal/listing"
)

var (
	ErrNotFound  = errors.New("favorite not found")
	ErrForbidden = errors.New("forbidden")
)

// Favorite is a bookmark with the listing's display fields copied in.
type Favorite struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	ListingID string    `json:"listing_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingGetter looks up the bookmarked listing.
type ListingGetter interface {
	Get(ctx context.Context, id string) (*listing.Listing, error)
}

// Repository provides storage for favorites.
type Repository struct {
	db       *sql.DB
	listings ListingGetter
}

// NewRepository creates a favorite repository.
func NewRepository(db *sql.DB, listings ListingGetter) *Repository {
	return &Repository{db: db, listings: listings}
}

const selectColumns = `id, account_id, listing_id, title, location, price, created_at`

func scanFavorite(row interface{ Scan(...any) error }) (*Favorite, error) {
	var f Favorite
	if err := row.Scan(&f.ID, &f.AccountID, &f.ListingID, &f.Title, &f.Location, &f.Price, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// Add bookmarks a listing. Adding the same listing twice returns the existing favorite.
func (r *Repository) Add(ctx context.Context, accountID, listingID string) (*Favorite, error) {
	l, err := r.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO favorites (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (account_id, listing_id) DO NOTHING`,
		uuid.NewString(), accountID, l.ID, l.Title, l.Location, l.Price, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting favorite: %w", err)
	}

	f, err := scanFavorite(r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM favorites WHERE account_id = ? AND listing_id = ?", accountID, l.ID,
	))
	if err != nil {
		return nil, fmt.Errorf("reading back favorite: %w", err)
	}
	return f, nil
}

// ListByAccount returns an account's favorites, newest first.
func (r *Repository) ListByAccount(ctx context.Context, accountID string) ([]*Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM favorites WHERE account_id = ? ORDER BY created_at DESC", accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	favorites := []*Favorite{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating favorites: %w", err)
	}
	return favorites, nil
}

// Remove deletes a favorite. Only the account that added it may remove it.
func (r *Repository) Remove(ctx context.Context, accountID, id string) error {
	var holder string
	err := r.db.QueryRowContext(ctx, "SELECT account_id FROM favorites WHERE id = ?", id).Scan(&holder)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("querying favorite: %w", err)
	}
	if holder != accountID {
		return ErrForbidden
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM favorites WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	return nil
}
