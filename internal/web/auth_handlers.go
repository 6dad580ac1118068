package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/auth"
)

// loginResponse is returned by register, login and passkey login.
type loginResponse struct {
	Token   string           `json:"token"`
	Account *account.Account `json:"account"`
}

// startSession sets the session cookie, announces the login and returns a
// bearer token for a.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, a *account.Account, method string) (*loginResponse, error) {
	if err := s.deps.Sessions.Create(r.Context(), w, a.ID); err != nil {
		return nil, err
	}
	token, err := s.deps.Tokens.Issue(a)
	if err != nil {
		return nil, err
	}
	s.deps.Identity.Notify(r.Context(), auth.ChangeLogin, a.ID)
	slog.Info("login success", "account", a.ID, "method", method)
	return &loginResponse{Token: token, Account: a}, nil
}

// handleRegister creates an account and mails an email verification link.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg account.Registration
	if !decodeJSON(w, r, &reg) {
		return
	}

	a, err := s.deps.Accounts.Register(r.Context(), reg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("account registered", "account", a.ID, "role", a.Role)

	s.sendVerification(r, a)

	resp, err := s.startSession(w, r, a, "register")
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, resp, http.StatusCreated)
}

// sendVerification mails a verification link. Failures are logged only;
// the user can ask for a new link.
func (s *Server) sendVerification(r *http.Request, a *account.Account) {
	token, err := s.deps.Verifications.Create(r.Context(), a.ID)
	if err != nil {
		slog.Error("creating verification token", "account", a.ID, "err", err)
		return
	}
	if _, err := s.deps.Mailer.SendVerification(r.Context(), a.Email, token); err != nil {
		slog.Error("sending verification email", "account", a.ID, "err", err)
	}
}

// handleLogin checks an email and password.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip := auth.ClientIP(r)
	if s.limiter.Limited(ip) {
		apiError(w, "trop de tentatives, réessayez dans une minute", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := s.deps.Accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			s.limiter.RecordFailure(ip)
			slog.Warn("login failed", "ip", ip)
		}
		writeError(w, r, err)
		return
	}
	s.limiter.Reset(ip)

	resp, err := s.startSession(w, r, a, "password")
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, resp, http.StatusOK)
}

// handleLogout ends the cookie session. Bearer tokens stay valid until they expire.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("destroying session", "err", err)
	}
	if sess := auth.SessionFrom(r.Context()); sess != nil {
		s.deps.Identity.Notify(r.Context(), auth.ChangeLogout, sess.Account.ID)
	}
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleVerify consumes an email verification token.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		apiError(w, "token is required", http.StatusBadRequest)
		return
	}

	accountID, err := s.deps.Verifications.Consume(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Accounts.MarkEmailVerified(r.Context(), accountID); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("email verified", "account", accountID)
	apiJSON(w, map[string]any{"account_id": accountID, "email_verified": true}, http.StatusOK)
}

// handleResendVerification mails a fresh verification link.
func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	a := auth.SessionFrom(r.Context()).Account
	if a.EmailVerified {
		apiJSON(w, map[string]any{"email_verified": true}, http.StatusOK)
		return
	}
	s.sendVerification(r, a)
	apiJSON(w, map[string]any{"email_verified": false, "sent": true}, http.StatusAccepted)
}

// handleMe returns the signed-in account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, auth.SessionFrom(r.Context()).Account, http.StatusOK)
}
