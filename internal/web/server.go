// Package web provides the Betna Immo HTTP JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/assistant"
	"github.com/betna-immo/betna/internal/auth"
	"github.com/betna-immo/betna/internal/billing"
	"github.com/betna-immo/betna/internal/favorite"
	"github.com/betna-immo/betna/internal/imagehost"
	"github.com/betna-immo/betna/internal/listing"
	"github.com/betna-immo/betna/internal/logging"
	"github.com/betna-immo/betna/internal/visit"
)

// Deps are the services the API serves. Images and Billing may be nil when
// not configured; the matching routes then answer 503.
type Deps struct {
	BaseURL string

	Accounts      *account.Store
	Listings      *listing.Service
	Visits        *visit.Service
	Favorites     *favorite.Repository
	Assistant     *assistant.Service
	Billing       *billing.Service
	Images        imagehost.Uploader
	Tokens        *auth.TokenIssuer
	Sessions      *auth.SessionStore
	Verifications *auth.VerificationStore
	Passkeys      *auth.PasskeyStore
	Mailer        *auth.Mailer
	Identity      *auth.Identity
}

// Server is the API HTTP server.
type Server struct {
	deps    Deps
	authn   *auth.Authenticator
	limiter *auth.LoginLimiter
	passkey *passkeyHandlers
	mux     *http.ServeMux
	handler http.Handler
}

// NewServer creates the API server and registers its routes.
func NewServer(deps Deps) (*Server, error) {
	s := &Server{
		deps:    deps,
		authn:   auth.NewAuthenticator(deps.Tokens, deps.Sessions, deps.Accounts),
		limiter: auth.NewLoginLimiter(),
		mux:     http.NewServeMux(),
	}

	pk, err := newPasskeyHandlers(deps.BaseURL, deps.Passkeys, deps.Accounts, s.startSession)
	if err != nil {
		return nil, fmt.Errorf("configuring passkeys: %w", err)
	}
	s.passkey = pk

	s.routes()
	s.handler = logging.RequestLogger(s.authn.Authenticate(s.mux))
	return s, nil
}

func (s *Server) routes() {
	signedIn := auth.RequireAccount
	owners := auth.RequireRole(account.RoleOwner, account.RoleAdmin)
	admins := auth.RequireRole(account.RoleAdmin)

	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /auth/logout", s.handleLogout)
	s.mux.HandleFunc("GET /auth/verify", s.handleVerify)
	s.mux.Handle("POST /auth/verify/resend", signedIn(http.HandlerFunc(s.handleResendVerification)))
	s.mux.Handle("GET /auth/me", signedIn(http.HandlerFunc(s.handleMe)))

	s.mux.Handle("POST /passkey/register/begin", signedIn(http.HandlerFunc(s.passkey.handleBeginRegistration)))
	s.mux.Handle("POST /passkey/register/finish", signedIn(http.HandlerFunc(s.passkey.handleFinishRegistration)))
	s.mux.HandleFunc("POST /passkey/login/begin", s.passkey.handleBeginLogin)
	s.mux.HandleFunc("POST /passkey/login/finish", s.passkey.handleFinishLogin)
	s.mux.Handle("GET /passkey/credentials", signedIn(http.HandlerFunc(s.passkey.handleListCredentials)))
	s.mux.Handle("DELETE /passkey/credentials/{id}", signedIn(http.HandlerFunc(s.passkey.handleDeleteCredential)))

	s.mux.HandleFunc("GET /api/listings", s.apiListListings)
	s.mux.Handle("POST /api/listings", signedIn(http.HandlerFunc(s.apiSubmitListing)))
	s.mux.HandleFunc("GET /api/listings/watch", s.apiWatchListings)
	s.mux.HandleFunc("GET /api/listings/{id}", s.apiGetListing)
	s.mux.Handle("PUT /api/listings/{id}", signedIn(http.HandlerFunc(s.apiEditListing)))
	s.mux.Handle("DELETE /api/listings/{id}", signedIn(http.HandlerFunc(s.apiDeleteListing)))
	s.mux.Handle("POST /api/listings/{id}/approve", signedIn(http.HandlerFunc(s.apiApproveListing)))

	s.mux.Handle("POST /api/images", owners(http.HandlerFunc(s.apiUploadImage)))

	s.mux.Handle("GET /api/admin/accounts", admins(http.HandlerFunc(s.apiListAccounts)))
	s.mux.Handle("POST /api/admin/accounts/{id}/toggle-status", admins(http.HandlerFunc(s.apiToggleAccountStatus)))
	s.mux.Handle("GET /api/admin/listings/pending", admins(http.HandlerFunc(s.apiListPending)))

	s.mux.Handle("GET /api/favorites", signedIn(http.HandlerFunc(s.apiListFavorites)))
	s.mux.Handle("POST /api/favorites", signedIn(http.HandlerFunc(s.apiAddFavorite)))
	s.mux.Handle("DELETE /api/favorites/{id}", signedIn(http.HandlerFunc(s.apiRemoveFavorite)))

	s.mux.Handle("GET /api/visits", signedIn(http.HandlerFunc(s.apiListVisits)))
	s.mux.Handle("POST /api/visits", signedIn(http.HandlerFunc(s.apiRequestVisit)))
	s.mux.Handle("POST /api/visits/{id}/confirm", signedIn(http.HandlerFunc(s.apiConfirmVisit)))
	s.mux.Handle("POST /api/visits/{id}/cancel", signedIn(http.HandlerFunc(s.apiCancelVisit)))

	s.mux.HandleFunc("GET /api/billing/plans", s.apiListPlans)
	s.mux.HandleFunc("POST /api/billing/checkout", s.apiCheckout)
	s.mux.HandleFunc("POST /api/billing/webhook", s.apiBillingWebhook)

	s.mux.Handle("POST /api/assistant/chat", signedIn(http.HandlerFunc(s.apiChat)))
	s.mux.Handle("GET /api/assistant/messages", signedIn(http.HandlerFunc(s.apiChatHistory)))
	s.mux.Handle("POST /api/assistant/analyze", signedIn(http.HandlerFunc(s.apiAnalyze)))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "base_url", s.deps.BaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
