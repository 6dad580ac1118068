package email

import (
	"context"
	"log/slog"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/listing"
	"github.com/betna-immo/betna/internal/visit"
)

// AccountGetter resolves account ids to contact details.
type AccountGetter interface {
	Get(ctx context.Context, id string) (*account.Account, error)
}

// Notifier mails owners about approvals and visit requests. Delivery
// failures are logged; they never fail the operation that triggered them.
type Notifier struct {
	sender   Sender
	accounts AccountGetter
	baseURL  string
}

// NewNotifier creates a notifier.
func NewNotifier(sender Sender, accounts AccountGetter, baseURL string) *Notifier {
	return &Notifier{sender: sender, accounts: accounts, baseURL: baseURL}
}

// ListingApproved tells the owner their listing is verified.
func (n *Notifier) ListingApproved(ctx context.Context, l *listing.Listing) {
	owner, err := n.accounts.Get(ctx, l.OwnerID)
	if err != nil {
		slog.Warn("approval notice: looking up owner", "listing", l.ID, "err", err)
		return
	}

	subject := "Betna Immo : annonce vérifiée"
	if err := n.sender.Send(ctx, []string{owner.Email}, subject, ApprovalBody(owner.FullName, l, n.baseURL)); err != nil {
		slog.Warn("approval notice: sending", "listing", l.ID, "account", owner.ID, "err", err)
	}
}

// VisitRequested tells the owner someone wants to visit their listing.
func (n *Notifier) VisitRequested(ctx context.Context, v *visit.Request) {
	owner, err := n.accounts.Get(ctx, v.OwnerID)
	if err != nil {
		slog.Warn("visit notice: looking up owner", "visit", v.ID, "err", err)
		return
	}

	requester := "Un client"
	if a, err := n.accounts.Get(ctx, v.AccountID); err == nil && a.FullName != "" {
		requester = a.FullName
	}

	subject := "Betna Immo : demande de visite"
	if err := n.sender.Send(ctx, []string{owner.Email}, subject, VisitRequestBody(requester, v)); err != nil {
		slog.Warn("visit notice: sending", "visit", v.ID, "account", owner.ID, "err", err)
	}
}
