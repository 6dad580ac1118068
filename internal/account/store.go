package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// Store manages accounts in SQLite.
type Store struct {
	db         *sql.DB
	adminEmail string
	now        func() time.Time
}

// NewStore creates an account store. Registering adminEmail yields an admin account.
func NewStore(db *sql.DB, adminEmail string) *Store {
	return &Store{
		db:         db,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

const selectColumns = `id, email, full_name, phone, role, status, email_verified,
	plan, plan_active, plan_started, plan_ends, stripe_customer, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	var role, status string
	var started, ends sql.NullTime
	err := row.Scan(
		&a.ID, &a.Email, &a.FullName, &a.Phone, &role, &status, &a.EmailVerified,
		&a.Subscription.Plan, &a.Subscription.Active, &started, &ends,
		&a.StripeCustomer, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = Role(role)
	a.Status = Status(status)
	if started.Valid {
		a.Subscription.StartedAt = &started.Time
	}
	if ends.Valid {
		a.Subscription.EndsAt = &ends.Time
	}
	return &a, nil
}

// IsAdminEmail reports whether email is the configured admin address.
func (s *Store) IsAdminEmail(email string) bool {
	return s.adminEmail != "" && strings.ToLower(strings.TrimSpace(email)) == s.adminEmail
}

// Register creates an account with the default subscription and active status.
func (s *Store) Register(ctx context.Context, reg Registration) (*Account, error) {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.FullName = strings.TrimSpace(reg.FullName)
	reg.Phone = strings.TrimSpace(reg.Phone)

	if err := validate.Struct(reg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}

	role := reg.Role
	if s.IsAdminEmail(reg.Email) {
		role = RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, full_name, phone, role, status, plan, plan_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		id, reg.Email, string(hash), reg.FullName, reg.Phone, string(role), string(StatusActive), PlanNone, s.now(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: %s", ErrExists, reg.Email)
		}
		return nil, fmt.Errorf("inserting account: %w", err)
	}

	return s.Get(ctx, id)
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+": "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

// Authenticate checks a password login. Blocked accounts cannot start new sessions.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT password_hash FROM accounts WHERE email = ?", email).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("querying password: %w", err)
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	a, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if a.Blocked() {
		return nil, ErrBlocked
	}
	return a, nil
}

// Get returns an account by id.
func (s *Store) Get(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account %s: %w", id, err)
	}
	return a, nil
}

// GetByEmail returns an account by email, case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM accounts WHERE email = ?", email)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by email: %w", err)
	}
	return a, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	Role   Role   // empty = all
	Status Status // empty = all
	Search string // substring of email or full name
}

// List returns accounts, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Account, error) {
	query := "SELECT " + selectColumns + " FROM accounts"
	var conditions []string
	var args []any

	if opts.Role != "" {
		conditions = append(conditions, "role = ?")
		args = append(args, string(opts.Role))
	}
	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(opts.Status))
	}
	if q := strings.TrimSpace(opts.Search); q != "" {
		conditions = append(conditions, "(email LIKE ? OR full_name LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, email"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	var accounts []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ToggleStatus flips an account between actif and bloqué and returns the new status.
// Listings and sessions of the account are left as they are.
func (s *Store) ToggleStatus(ctx context.Context, actor Actor, id string) (Status, error) {
	if !actor.IsAdmin() {
		return "", ErrForbidden
	}

	var next Status
	err := s.db.QueryRowContext(ctx,
		`UPDATE accounts
		 SET status = CASE status WHEN 'actif' THEN 'bloqué' ELSE 'actif' END
		 WHERE id = ?
		 RETURNING status`, id,
	).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("toggling status: %w", err)
	}

	slog.Info("account status changed", "account", id, "status", next, "by", actor.ID)
	return next, nil
}

// MarkEmailVerified records a confirmed email address.
func (s *Store) MarkEmailVerified(ctx context.Context, id string) error {
	return s.update(ctx, "marking email verified", "UPDATE accounts SET email_verified = 1 WHERE id = ?", id)
}

// SetStripeCustomer stores the billing customer id for later checkouts.
func (s *Store) SetStripeCustomer(ctx context.Context, id, customer string) error {
	return s.update(ctx, "setting stripe customer", "UPDATE accounts SET stripe_customer = ? WHERE id = ?", customer, id)
}

// ActivateSubscription stores an active plan for the given period.
func (s *Store) ActivateSubscription(ctx context.Context, id, plan string, start, end time.Time) error {
	return s.update(ctx, "activating subscription",
		"UPDATE accounts SET plan = ?, plan_active = 1, plan_started = ?, plan_ends = ? WHERE id = ?",
		plan, start.UTC(), end.UTC(), id,
	)
}

// HasActiveSubscription reports whether the account holds an unexpired active plan.
func (s *Store) HasActiveSubscription(ctx context.Context, id string) (bool, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	sub := a.Subscription
	if !sub.Active {
		return false, nil
	}
	return sub.EndsAt == nil || sub.EndsAt.After(s.now()), nil
}

// DeactivateExpired clears the active flag on subscriptions that ended before now.
func (s *Store) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET plan_active = 0 WHERE plan_active = 1 AND plan_ends IS NOT NULL AND plan_ends < ?",
		now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deactivating subscriptions: %w", err)
	}
	return result.RowsAffected()
}

func (s *Store) update(ctx context.Context, what, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
