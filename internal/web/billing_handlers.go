package web

import (
	"io"
	"net/http"

	"github.com/betna-immo/betna/internal/auth"
	"github.com/betna-immo/betna/internal/billing"
)

const maxWebhookBody = 64 << 10

// billingEnabled answers 503 when Stripe is not configured.
func (s *Server) billingEnabled(w http.ResponseWriter) bool {
	if s.deps.Billing == nil {
		apiError(w, "billing not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) apiListPlans(w http.ResponseWriter, r *http.Request) {
	if !s.billingEnabled(w) {
		return
	}
	plans := s.deps.Billing.Plans()
	if plans == nil {
		plans = []billing.Plan{}
	}
	apiJSON(w, plans, http.StatusOK)
}

// apiCheckout starts a Stripe Checkout session for the caller.
func (s *Server) apiCheckout(w http.ResponseWriter, r *http.Request) {
	if !s.billingEnabled(w) {
		return
	}
	var req struct {
		PlanID string `json:"plan_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	url, err := s.deps.Billing.CreateCheckoutSession(r.Context(), auth.SessionFrom(r.Context()), req.PlanID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]string{"checkout_url": url}, http.StatusOK)
}

// apiBillingWebhook receives Stripe events. The body must be read verbatim
// for signature verification.
func (s *Server) apiBillingWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.billingEnabled(w) {
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		apiError(w, "reading body", http.StatusBadRequest)
		return
	}
	if err := s.deps.Billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]bool{"received": true}, http.StatusOK)
}
