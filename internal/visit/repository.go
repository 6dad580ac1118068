package visit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// Repository provides storage for visit requests.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a visit repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, account_id, listing_id, owner_id, title, location, price, visit_date, note, status, created_at`

func scanRequest(row interface{ Scan(...any) error }) (*Request, error) {
	var v Request
	var status string
	if err := row.Scan(&v.ID, &v.AccountID, &v.ListingID, &v.OwnerID, &v.Title, &v.Location, &v.Price,
		&v.VisitDate, &v.Note, &status, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.Status = Status(status)
	return &v, nil
}

// Insert stores a new visit request.
func (r *Repository) Insert(ctx context.Context, v *Request) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO visit_requests (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.AccountID, v.ListingID, v.OwnerID, v.Title, v.Location, v.Price,
		v.VisitDate, v.Note, string(v.Status), v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting visit request: %w", err)
	}
	return nil
}

// Get returns a visit request by id.
func (r *Repository) Get(ctx context.Context, id string) (*Request, error) {
	v, err := scanRequest(r.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM visit_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying visit request: %w", err)
	}
	return v, nil
}

// ListByAccount returns the requests made by an account, soonest visit first.
func (r *Repository) ListByAccount(ctx context.Context, accountID string) ([]*Request, error) {
	return r.list(ctx, "account_id = ?", accountID)
}

// ListByOwner returns the requests made on an owner's listings.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]*Request, error) {
	return r.list(ctx, "owner_id = ?", ownerID)
}

// ListAll returns every request.
func (r *Repository) ListAll(ctx context.Context) ([]*Request, error) {
	return r.list(ctx, "1 = 1")
}

func (r *Repository) list(ctx context.Context, where string, args ...any) ([]*Request, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM visit_requests WHERE "+where+" ORDER BY visit_date ASC, created_at DESC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing visit requests: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	requests := []*Request{}
	for rows.Next() {
		v, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning visit request: %w", err)
		}
		requests = append(requests, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visit requests: %w", err)
	}
	return requests, nil
}

// SetStatus updates the status of a request.
func (r *Repository) SetStatus(ctx context.Context, id string, status Status) error {
	result, err := r.db.ExecContext(ctx, "UPDATE visit_requests SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating visit status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
