package visit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/listing"
)

// ListingGetter looks up the listing a visit is requested for.
type ListingGetter interface {
	Get(ctx context.Context, id string) (*listing.Listing, error)
}

// Notifier is told about new requests, e.g. to email the listing owner.
type Notifier interface {
	VisitRequested(ctx context.Context, v *Request)
}

// Service applies the visit request rules.
type Service struct {
	repo     *Repository
	listings ListingGetter
	notifier Notifier
	now      func() time.Time
}

// NewService creates a visit service. notifier may be nil.
func NewService(repo *Repository, listings ListingGetter, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		listings: listings,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Request asks the owner of a listing for a visit on date (YYYY-MM-DD).
func (s *Service) Request(ctx context.Context, actor account.Actor, listingID, date, note string) (*Request, error) {
	date = strings.TrimSpace(date)
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date format (use YYYY-MM-DD)", ErrInvalid)
	}
	if day.Before(s.now().Truncate(24 * time.Hour)) {
		return nil, fmt.Errorf("%w: visit date is in the past", ErrInvalid)
	}

	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.OwnerID == actor.ID {
		return nil, fmt.Errorf("%w: cannot request a visit of your own listing", ErrInvalid)
	}

	v := &Request{
		ID:        uuid.NewString(),
		AccountID: actor.ID,
		ListingID: l.ID,
		OwnerID:   l.OwnerID,
		Title:     l.Title,
		Location:  l.Location,
		Price:     l.Price,
		VisitDate: date,
		Note:      strings.TrimSpace(note),
		Status:    StatusPending,
		CreatedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, v); err != nil {
		return nil, err
	}

	slog.Info("visit requested", "visit", v.ID, "listing", l.ID, "account", actor.ID)
	if s.notifier != nil {
		s.notifier.VisitRequested(ctx, v)
	}
	return v, nil
}

// Scope selects which requests List returns.
type Scope string

const (
	ScopeMine     Scope = "mine"     // requests the actor made
	ScopeIncoming Scope = "incoming" // requests on the actor's listings
	ScopeAll      Scope = "all"      // admin only
)

// List returns the actor's requests in the given scope.
func (s *Service) List(ctx context.Context, actor account.Actor, scope Scope) ([]*Request, error) {
	switch scope {
	case ScopeIncoming:
		return s.repo.ListByOwner(ctx, actor.ID)
	case ScopeAll:
		if !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		return s.repo.ListAll(ctx)
	default:
		return s.repo.ListByAccount(ctx, actor.ID)
	}
}

// Confirm accepts a pending request. Only the listing owner or an admin may confirm.
func (s *Service) Confirm(ctx context.Context, actor account.Actor, id string) (*Request, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if v.Status != StatusPending {
		return nil, fmt.Errorf("%w: request is %s", ErrConflict, v.Status.Label())
	}
	return s.setStatus(ctx, actor, v, StatusConfirmed)
}

// Cancel cancels a pending or confirmed request. The requester, the
// listing owner and admins may cancel.
func (s *Service) Cancel(ctx context.Context, actor account.Actor, id string) (*Request, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.OwnerID != actor.ID && v.AccountID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if v.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: request is already cancelled", ErrConflict)
	}
	return s.setStatus(ctx, actor, v, StatusCancelled)
}

func (s *Service) setStatus(ctx context.Context, actor account.Actor, v *Request, status Status) (*Request, error) {
	if err := s.repo.SetStatus(ctx, v.ID, status); err != nil {
		return nil, err
	}
	v.Status = status
	slog.Info("visit status changed", "visit", v.ID, "status", status, "by", actor.ID)
	return v, nil
}
