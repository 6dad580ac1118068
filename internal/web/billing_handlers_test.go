package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/billing"
)

func TestBillingNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "awa@example.com", account.RoleOwner)

	w := apiRequest(t, env.srv, http.MethodGet, "/api/billing/plans", "", nil)
	wantStatus(t, w, http.StatusServiceUnavailable)

	w = apiRequest(t, env.srv, http.MethodPost, "/api/billing/checkout", token, map[string]string{"plan_id": "mensuel"})
	wantStatus(t, w, http.StatusServiceUnavailable)
}

func TestCheckoutErrorCodes(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "awa@example.com", account.RoleOwner)
	env.srv.deps.Billing = billing.NewService(billing.Config{
		Plans: billing.PlansFromPrices(map[string]string{"mensuel": "price_m", "annuel": "price_a"}),
	}, env.srv.deps.Accounts)

	w := apiRequest(t, env.srv, http.MethodGet, "/api/billing/plans", "", nil)
	wantStatus(t, w, http.StatusOK)
	if plans := decode[[]billing.Plan](t, w); len(plans) != 2 || plans[0].ID != "annuel" || plans[0].Months != 12 {
		t.Errorf("plans = %+v", plans)
	}

	tests := []struct {
		name     string
		token    string
		plan     string
		want     int
		wantCode billing.Code
	}{
		{"anonymous", "", "mensuel", http.StatusUnauthorized, billing.CodeUnauthenticated},
		{"unknown plan", token, "hebdo", http.StatusBadRequest, billing.CodeInvalidArgument},
		{"no stripe key", token, "mensuel", http.StatusPreconditionFailed, billing.CodeFailedPrecondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, env.srv, http.MethodPost, "/api/billing/checkout", tt.token, map[string]string{"plan_id": tt.plan})
			wantStatus(t, w, tt.want)
			if got := decode[errorResponse](t, w); got.Code != string(tt.wantCode) {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestCheckoutReturnsCheckoutURL(t *testing.T) {
	stripeAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	}))
	defer stripeAPI.Close()

	env := newTestEnv(t)
	token, _ := env.register(t, "awa@example.com", account.RoleOwner)
	env.srv.deps.Billing = billing.NewService(billing.Config{
		SecretKey:  "sk_test_123",
		SuccessURL: "http://localhost/ok",
		CancelURL:  "http://localhost/cancel",
		APIURL:     stripeAPI.URL,
		Plans:      billing.PlansFromPrices(map[string]string{"mensuel": "price_m"}),
	}, env.srv.deps.Accounts)

	w := apiRequest(t, env.srv, http.MethodPost, "/api/billing/checkout", token, map[string]string{"plan_id": "mensuel"})
	wantStatus(t, w, http.StatusOK)
	if got := decode[map[string]string](t, w); got["checkout_url"] != "https://checkout.stripe.com/c/pay/cs_test_1" {
		t.Errorf("response = %v", got)
	}
}

func TestWebhookBadSignature(t *testing.T) {
	env := newTestEnv(t)
	env.srv.deps.Billing = billing.NewService(billing.Config{WebhookSecret: "whsec_test"}, env.srv.deps.Accounts)

	w := apiRequest(t, env.srv, http.MethodPost, "/api/billing/webhook", "", map[string]string{"type": "checkout.session.completed"})
	wantStatus(t, w, http.StatusBadRequest)
}
