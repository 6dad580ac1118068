package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Repository provides storage for listings and their images.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a listing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, owner_id, title, location, price, description, bedrooms, bathrooms,
	stay_type, state, agent_name, agent_phone, agent_email, created_at, updated_at`

func scanListing(row interface{ Scan(...any) error }) (*Listing, error) {
	var l Listing
	var bedrooms, bathrooms sql.NullInt64
	var stay, state string
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Location, &l.Price, &l.Description,
		&bedrooms, &bathrooms, &stay, &state,
		&l.Agent.Name, &l.Agent.Phone, &l.Agent.Email,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bedrooms.Valid {
		n := int(bedrooms.Int64)
		l.Bedrooms = &n
	}
	if bathrooms.Valid {
		n := int(bathrooms.Int64)
		l.Bathrooms = &n
	}
	l.StayType = StayType(stay)
	l.State = State(state)
	l.Images = []string{}
	return &l, nil
}

// Insert stores a new listing with its images.
func (r *Repository) Insert(ctx context.Context, l *Listing) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO listings (id, owner_id, title, location, price, description, bedrooms, bathrooms,
				stay_type, state, agent_name, agent_phone, agent_email, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.OwnerID, l.Title, l.Location, l.Price, l.Description, l.Bedrooms, l.Bathrooms,
			string(l.StayType), string(l.State), l.Agent.Name, l.Agent.Phone, l.Agent.Email,
			l.CreatedAt, l.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting listing: %w", err)
		}
		return writeImages(ctx, tx, l.ID, l.Images)
	})
}

// Update overwrites the mutable fields and images of a listing. The owner,
// created-at and state are never written from l; with reverify a verified
// listing goes back to pending. l.State is refreshed from the stored row.
func (r *Repository) Update(ctx context.Context, l *Listing, reverify bool) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE listings SET title = ?, location = ?, price = ?, description = ?, bedrooms = ?, bathrooms = ?,
				stay_type = ?, agent_name = ?, agent_phone = ?, agent_email = ?, updated_at = ?
			 WHERE id = ?`,
			l.Title, l.Location, l.Price, l.Description, l.Bedrooms, l.Bathrooms,
			string(l.StayType), l.Agent.Name, l.Agent.Phone, l.Agent.Email, l.UpdatedAt,
			l.ID,
		)
		if err != nil {
			return fmt.Errorf("updating listing: %w", err)
		}
		if err := expectOne(result, l.ID); err != nil {
			return err
		}
		if reverify {
			if _, err := tx.ExecContext(ctx,
				"UPDATE listings SET state = ? WHERE id = ? AND state = ?",
				string(StatePending), l.ID, string(StateVerified),
			); err != nil {
				return fmt.Errorf("resetting state: %w", err)
			}
		}
		var state string
		if err := tx.QueryRowContext(ctx, "SELECT state FROM listings WHERE id = ?", l.ID).Scan(&state); err != nil {
			return fmt.Errorf("reading state: %w", err)
		}
		l.State = State(state)
		if _, err := tx.ExecContext(ctx, "DELETE FROM listing_images WHERE listing_id = ?", l.ID); err != nil {
			return fmt.Errorf("clearing images: %w", err)
		}
		return writeImages(ctx, tx, l.ID, l.Images)
	})
}

// SetState changes only the moderation state.
func (r *Repository) SetState(ctx context.Context, id string, state State) error {
	result, err := r.db.ExecContext(ctx, "UPDATE listings SET state = ? WHERE id = ?", string(state), id)
	if err != nil {
		return fmt.Errorf("setting state: %w", err)
	}
	return expectOne(result, id)
}

// Delete removes a listing. Images cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}
	return expectOne(result, id)
}

// Get returns a listing by id.
func (r *Repository) Get(ctx context.Context, id string) (*Listing, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM listings WHERE id = ?", id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %s: %w", id, err)
	}
	if err := r.loadImages(ctx, []*Listing{l}); err != nil {
		return nil, err
	}
	return l, nil
}

// Sort orders List results.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

// Query filters List. Zero values match everything.
type Query struct {
	OwnerID  string
	State    State
	Location string // case-insensitive substring
	Search   string // substring of title or location
	StayType StayType
	MinPrice int64
	MaxPrice int64
	Sort     Sort
	Limit    int
}

// List returns listings matching q.
func (r *Repository) List(ctx context.Context, q Query) ([]*Listing, error) {
	query := "SELECT " + selectColumns + " FROM listings"
	var conditions []string
	var args []any

	if q.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, q.OwnerID)
	}
	if q.State != "" {
		conditions = append(conditions, "state = ?")
		args = append(args, string(q.State))
	}
	if loc := strings.TrimSpace(q.Location); loc != "" {
		conditions = append(conditions, "location LIKE ?")
		args = append(args, "%"+loc+"%")
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		conditions = append(conditions, "(title LIKE ? OR location LIKE ?)")
		args = append(args, "%"+s+"%", "%"+s+"%")
	}
	if q.StayType != "" {
		conditions = append(conditions, "stay_type = ?")
		args = append(args, string(q.StayType))
	}
	if q.MinPrice > 0 {
		conditions = append(conditions, "price >= ?")
		args = append(args, q.MinPrice)
	}
	if q.MaxPrice > 0 {
		conditions = append(conditions, "price <= ?")
		args = append(args, q.MaxPrice)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	switch q.Sort {
	case SortOldest:
		query += " ORDER BY created_at ASC, id"
	case SortPriceAsc:
		query += " ORDER BY price ASC, created_at DESC"
	case SortPriceDesc:
		query += " ORDER BY price DESC, created_at DESC"
	default:
		query += " ORDER BY created_at DESC, id"
	}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	listings, err := r.queryListings(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := r.loadImages(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *Repository) queryListings(ctx context.Context, query string, args ...any) ([]*Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	listings := []*Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}
	return listings, nil
}

// loadImages fills Images for every listing with a single query.
func (r *Repository) loadImages(ctx context.Context, listings []*Listing) error {
	if len(listings) == 0 {
		return nil
	}
	byID := make(map[string]*Listing, len(listings))
	placeholders := make([]string, 0, len(listings))
	args := make([]any, 0, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
		placeholders = append(placeholders, "?")
		args = append(args, l.ID)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT listing_id, url FROM listing_images WHERE listing_id IN ("+strings.Join(placeholders, ",")+") ORDER BY listing_id, position",
		args...,
	)
	if err != nil {
		return fmt.Errorf("loading images: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	for rows.Next() {
		var id, url string
		if err := rows.Scan(&id, &url); err != nil {
			return fmt.Errorf("scanning image: %w", err)
		}
		if l, ok := byID[id]; ok {
			l.Images = append(l.Images, url)
		}
	}
	return rows.Err()
}

func writeImages(ctx context.Context, tx *sql.Tx, id string, images []string) error {
	for i, url := range images {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO listing_images (listing_id, position, url) VALUES (?, ?, ?)", id, i, url,
		); err != nil {
			return fmt.Errorf("inserting image %d: %w", i, err)
		}
	}
	return nil
}

func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			slog.Warn("rolling back", "err", rerr)
		}
		return err
	}
	return tx.Commit()
}

func expectOne(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
