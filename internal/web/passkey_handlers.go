package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/auth"
)

const (
	ceremonyCookie = "betna_passkey"
	ceremonyTTL    = 5 * time.Minute
)

type ceremony struct {
	data    *webauthn.SessionData
	expires time.Time
}

type accountLookup interface {
	Get(ctx context.Context, id string) (*account.Account, error)
}

// passkeyHandlers holds WebAuthn-related HTTP handlers.
type passkeyHandlers struct {
	wan      *webauthn.WebAuthn
	passkeys *auth.PasskeyStore
	accounts accountLookup
	login    func(w http.ResponseWriter, r *http.Request, a *account.Account, method string) (*loginResponse, error)

	// In-flight ceremonies. Registrations are keyed by account id, logins
	// by a random id carried in a short-lived cookie.
	mu           sync.Mutex
	regSessions  map[string]ceremony
	loginSession map[string]ceremony
}

func newPasskeyHandlers(baseURL string, passkeys *auth.PasskeyStore, accounts accountLookup,
	login func(http.ResponseWriter, *http.Request, *account.Account, string) (*loginResponse, error)) (*passkeyHandlers, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Betna Immo",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{strings.TrimRight(baseURL, "/")},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:          wan,
		passkeys:     passkeys,
		accounts:     accounts,
		login:        login,
		regSessions:  make(map[string]ceremony),
		loginSession: make(map[string]ceremony),
	}, nil
}

// take removes and returns an unexpired ceremony.
func (h *passkeyHandlers) take(m map[string]ceremony, key string) (*webauthn.SessionData, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	for k, c := range m {
		if now.After(c.expires) {
			delete(m, k)
		}
	}
	c, ok := m[key]
	if !ok {
		return nil, false
	}
	delete(m, key)
	return c.data, true
}

func (h *passkeyHandlers) put(m map[string]ceremony, key string, data *webauthn.SessionData) {
	h.mu.Lock()
	m[key] = ceremony{data: data, expires: time.Now().Add(ceremonyTTL)}
	h.mu.Unlock()
}

// handleBeginRegistration starts passkey registration for the signed-in account.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	a := auth.SessionFrom(r.Context()).Account

	creds, err := h.passkeys.WebAuthnCredentials(r.Context(), a.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Exclude existing credentials so the same key is not registered twice.
	excludeList := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		excludeList[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(auth.NewPasskeyUser(a, creds),
		webauthn.WithExclusions(excludeList),
	)
	if err != nil {
		slog.Error("beginning registration", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.put(h.regSessions, a.ID, session)
	apiJSON(w, creation, http.StatusOK)
}

// handleFinishRegistration completes passkey registration.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	a := auth.SessionFrom(r.Context()).Account

	session, ok := h.take(h.regSessions, a.ID)
	if !ok {
		apiError(w, "no registration in progress", http.StatusBadRequest)
		return
	}

	creds, err := h.passkeys.WebAuthnCredentials(r.Context(), a.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	credential, err := h.wan.FinishRegistration(auth.NewPasskeyUser(a, creds), *session, r)
	if err != nil {
		slog.Warn("finishing registration", "account", a.ID, "err", err)
		apiError(w, "registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}
	if err := h.passkeys.Save(r.Context(), a.ID, name, credential); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("passkey registered", "account", a.ID, "name", name)
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusCreated)
}

// handleBeginLogin starts a discoverable passkey login.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	h.put(h.loginSession, id, session)
	http.SetCookie(w, &http.Cookie{
		Name:     ceremonyCookie,
		Value:    id,
		Path:     "/passkey/login",
		MaxAge:   int(ceremonyTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	apiJSON(w, assertion, http.StatusOK)
}

// handleFinishLogin completes a passkey login and starts a session.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(ceremonyCookie)
	if err != nil {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}
	session, ok := h.take(h.loginSession, cookie.Value)
	if !ok {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}

	var acct *account.Account
	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		a, err := h.accounts.Get(r.Context(), string(userHandle))
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		creds, err := h.passkeys.WebAuthnCredentials(r.Context(), a.ID)
		if err != nil {
			return nil, err
		}
		acct = a
		return auth.NewPasskeyUser(a, creds), nil
	}

	_, credential, err := h.wan.FinishPasskeyLogin(handler, *session, r)
	if err != nil {
		slog.Warn("finishing passkey login", "err", err)
		apiError(w, "login failed", http.StatusUnauthorized)
		return
	}
	if acct.Blocked() {
		writeError(w, r, account.ErrBlocked)
		return
	}
	if err := h.passkeys.UpdateCredential(r.Context(), credential); err != nil {
		slog.Warn("updating passkey sign count", "account", acct.ID, "err", err)
	}

	resp, err := h.login(w, r, acct, "passkey")
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, resp, http.StatusOK)
}

// handleListCredentials lists the signed-in account's passkeys.
func (h *passkeyHandlers) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	a := auth.SessionFrom(r.Context()).Account
	creds, err := h.passkeys.ListByAccount(r.Context(), a.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if creds == nil {
		creds = []auth.StoredCredential{}
	}
	apiJSON(w, creds, http.StatusOK)
}

// handleDeleteCredential removes one of the signed-in account's passkeys.
func (h *passkeyHandlers) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	a := auth.SessionFrom(r.Context()).Account
	id := r.PathValue("id")
	if err := h.passkeys.Delete(r.Context(), id, a.ID); err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]any{"id": id, "deleted": true}, http.StatusOK)
}
