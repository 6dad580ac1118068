package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/broker"
)

// Event kinds published on broker.TopicListings.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventApproved = "approved"
	EventDeleted  = "deleted"
)

// Policy holds lifecycle switches. Both are off unless configured.
type Policy struct {
	// RequireSubscription makes Submit check the owner's active subscription.
	RequireSubscription bool
	// ReverifyOnEdit sends an edited verified listing back to pending.
	ReverifyOnEdit bool
}

// SubscriptionChecker reports whether an account may publish.
type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, accountID string) (bool, error)
}

// Notifier is told about approvals, e.g. to email the owner.
type Notifier interface {
	ListingApproved(ctx context.Context, l *Listing)
}

// Service enforces who may move a listing through its lifecycle.
type Service struct {
	repo     *Repository
	broker   broker.Broker
	policy   Policy
	subs     SubscriptionChecker
	notifier Notifier
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy sets the lifecycle policy.
func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithSubscriptionChecker sets the checker used when RequireSubscription is on.
func WithSubscriptionChecker(c SubscriptionChecker) Option {
	return func(s *Service) { s.subs = c }
}

// WithNotifier sets the approval notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService creates a listing service publishing changes on b.
func NewService(repo *Repository, b broker.Broker, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		broker: b,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the active lifecycle policy.
func (s *Service) Policy() Policy {
	return s.policy
}

// Submit persists a new pending listing owned by actor.
// Nothing is written unless the draft is valid.
func (s *Service) Submit(ctx context.Context, actor account.Actor, d Draft) (*Listing, error) {
	if actor.Role != account.RoleOwner {
		return nil, fmt.Errorf("%w: only owners can submit listings", ErrForbidden)
	}

	d = Normalize(d)
	if err := Validate(d); err != nil {
		return nil, err
	}

	if s.policy.RequireSubscription && s.subs != nil {
		ok, err := s.subs.HasActiveSubscription(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("checking subscription: %w", err)
		}
		if !ok {
			return nil, ErrSubscriptionRequired
		}
	}

	ts := s.now()
	l := &Listing{
		ID:        uuid.NewString(),
		OwnerID:   actor.ID,
		State:     StatePending,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	l.apply(d)

	if err := s.repo.Insert(ctx, l); err != nil {
		return nil, fmt.Errorf("saving listing: %w", err)
	}

	slog.Info("listing submitted", "listing", l.ID, "account", actor.ID)
	s.publish(ctx, EventCreated, l.ID)
	return l, nil
}

// Edit overwrites the mutable fields of a listing. Only the owner may edit,
// whatever their role. The state is kept unless ReverifyOnEdit is on.
func (s *Service) Edit(ctx context.Context, actor account.Actor, id string, d Draft) (*Listing, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: only the owner can edit this listing", ErrForbidden)
	}

	d = Normalize(d)
	if err := Validate(d); err != nil {
		return nil, err
	}

	l.apply(d)
	l.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, l, s.policy.ReverifyOnEdit); err != nil {
		return nil, fmt.Errorf("saving listing: %w", err)
	}

	slog.Info("listing edited", "listing", l.ID, "account", actor.ID, "state", l.State)
	s.publish(ctx, EventUpdated, l.ID)
	return l, nil
}

// Approve marks a pending listing verified. Only the state changes.
// Approving an already verified listing is a no-op.
func (s *Service) Approve(ctx context.Context, actor account.Actor, id string) (*Listing, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can approve listings", ErrForbidden)
	}

	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Verified() {
		return l, nil
	}

	if err := s.repo.SetState(ctx, id, StateVerified); err != nil {
		return nil, fmt.Errorf("approving listing: %w", err)
	}
	l.State = StateVerified

	slog.Info("listing approved", "listing", l.ID, "by", actor.ID)
	s.publish(ctx, EventApproved, l.ID)
	if s.notifier != nil {
		s.notifier.ListingApproved(ctx, l)
	}
	return l, nil
}

// Delete removes a listing for good. Allowed for the owner and admins.
func (s *Service) Delete(ctx context.Context, actor account.Actor, id string) error {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.OwnerID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("%w: only the owner or an admin can delete this listing", ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("listing deleted", "listing", id, "by", actor.ID)
	s.publish(ctx, EventDeleted, id)
	return nil
}

// Get returns a listing by id.
func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	return s.repo.Get(ctx, id)
}

// List returns listings matching q.
func (s *Service) List(ctx context.Context, q Query) ([]*Listing, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) publish(ctx context.Context, kind, id string) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(ctx, broker.Event{Topic: broker.TopicListings, Kind: kind, ID: id})
}
