// Package billing starts Stripe Checkout sessions for owner subscriptions and
// records completed payments on the account.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/betna-immo/betna/internal/auth"
)

// AccountStore is the subset of account.Store billing writes to.
type AccountStore interface {
	SetStripeCustomer(ctx context.Context, id, customer string) error
	ActivateSubscription(ctx context.Context, id, plan string, start, end time.Time) error
}

// Config configures the Stripe integration.
type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	APIURL        string
	Plans         []Plan
}

// Service creates checkout sessions and consumes Stripe webhooks.
type Service struct {
	cfg      Config
	accounts AccountStore
	sessions checkoutsession.Client
	now      func() time.Time
}

// NewService creates a billing service. Network retries are disabled: a
// failed call surfaces to the caller once.
func NewService(cfg Config, accounts AccountStore) *Service {
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	return &Service{
		cfg:      cfg,
		accounts: accounts,
		sessions: checkoutsession.Client{B: backend, Key: cfg.SecretKey},
		now:      time.Now,
	}
}

// Plans returns the configured catalogue.
func (s *Service) Plans() []Plan {
	return s.cfg.Plans
}

// plan finds a plan by id, or by Stripe price id.
func (s *Service) plan(id string) (Plan, bool) {
	for _, p := range s.cfg.Plans {
		if p.ID == id || p.PriceID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// CreateCheckoutSession starts a Stripe Checkout session for the session's
// account and returns the URL to redirect to.
func (s *Service) CreateCheckoutSession(ctx context.Context, sess *auth.Session, planID string) (string, error) {
	if sess == nil || sess.Account == nil {
		return "", newError(CodeUnauthenticated, "vous devez être connecté pour vous abonner", nil)
	}
	if planID == "" {
		return "", newError(CodeInvalidArgument, "plan manquant", nil)
	}
	p, ok := s.plan(planID)
	if !ok {
		return "", newError(CodeInvalidArgument, fmt.Sprintf("plan inconnu %q", planID), nil)
	}
	if s.cfg.SecretKey == "" {
		return "", newError(CodeFailedPrecondition, "paiement indisponible", nil)
	}

	a := sess.Account
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(a.ID),
	}
	if a.StripeCustomer != "" {
		params.Customer = stripe.String(a.StripeCustomer)
	} else {
		params.CustomerEmail = stripe.String(a.Email)
	}
	params.AddMetadata("account_id", a.ID)
	params.AddMetadata("plan", p.ID)
	params.Context = ctx

	cs, err := s.sessions.New(params)
	if err != nil {
		slog.Error("creating checkout session", "account", a.ID, "plan", p.ID, "err", err)
		return "", newError(CodeInternal, "impossible de démarrer le paiement", err)
	}
	if cs.URL == "" {
		return "", newError(CodeInternal, "URL de paiement introuvable", nil)
	}
	slog.Info("checkout session created", "account", a.ID, "plan", p.ID, "session", cs.ID)
	return cs.URL, nil
}

// HandleWebhook verifies a Stripe event and applies it. Only completed
// checkouts change state; other event types are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.cfg.WebhookSecret == "" {
		return newError(CodeFailedPrecondition, "webhook secret not configured", nil)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return newError(CodeInvalidArgument, "invalid webhook signature", err)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		slog.Debug("ignoring stripe event", "type", event.Type, "id", event.ID)
		return nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return newError(CodeInvalidArgument, "malformed checkout session", err)
	}
	return s.completeCheckout(ctx, &cs)
}

func (s *Service) completeCheckout(ctx context.Context, cs *stripe.CheckoutSession) error {
	accountID := cs.ClientReferenceID
	if accountID == "" {
		accountID = cs.Metadata["account_id"]
	}
	if accountID == "" {
		return newError(CodeInvalidArgument, "checkout session has no account", nil)
	}
	p, ok := s.plan(cs.Metadata["plan"])
	if !ok {
		return newError(CodeInvalidArgument, fmt.Sprintf("checkout session has unknown plan %q", cs.Metadata["plan"]), nil)
	}

	start := s.now().UTC()
	if err := s.accounts.ActivateSubscription(ctx, accountID, p.ID, start, p.End(start)); err != nil {
		return newError(CodeInternal, "activating subscription", err)
	}
	if cs.Customer != nil && cs.Customer.ID != "" {
		if err := s.accounts.SetStripeCustomer(ctx, accountID, cs.Customer.ID); err != nil {
			return newError(CodeInternal, "saving stripe customer", err)
		}
	}
	slog.Info("subscription activated", "account", accountID, "plan", p.ID, "session", cs.ID)
	return nil
}
