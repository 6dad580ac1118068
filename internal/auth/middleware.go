package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/logging"
)

// AccountGetter loads the account a token or session refers to.
type AccountGetter interface {
	Get(ctx context.Context, id string) (*account.Account, error)
}

// Authenticator resolves bearer tokens and session cookies into a Session.
type Authenticator struct {
	tokens   *TokenIssuer
	sessions *SessionStore
	accounts AccountGetter
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens *TokenIssuer, sessions *SessionStore, accounts AccountGetter) *Authenticator {
	return &Authenticator{tokens: tokens, sessions: sessions, accounts: accounts}
}

// Resolve returns the session of r, or nil for anonymous requests.
// A bearer token that is present but invalid is an error.
func (a *Authenticator) Resolve(r *http.Request) (*Session, error) {
	ctx := r.Context()

	if header := r.Header.Get("Authorization"); header != "" {
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return nil, ErrUnauthenticated
		}
		claims, err := a.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		acct, err := a.load(ctx, claims.Subject)
		if err != nil {
			return nil, err
		}
		return &Session{Account: acct, EmailVerified: acct.EmailVerified, Claims: claims}, nil
	}

	accountID, err := a.sessions.Validate(ctx, r)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, nil
		}
		return nil, err
	}
	acct, err := a.load(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, nil
		}
		return nil, err
	}
	return &Session{Account: acct, EmailVerified: acct.EmailVerified}, nil
}

func (a *Authenticator) load(ctx context.Context, id string) (*account.Account, error) {
	acct, err := a.accounts.Get(ctx, id)
	if errors.Is(err, account.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	return acct, err
}

// Authenticate attaches the request's Session to its context.
// Anonymous requests pass through; an invalid bearer token is rejected with 401.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.Resolve(r)
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				jsonError(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			slog.Error("resolving session", "err", err)
			jsonError(w, "internal error", http.StatusInternalServerError)
			return
		}
		if sess != nil {
			logging.SetAccount(r.Context(), sess.Account.ID)
			r = r.WithContext(WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAccount rejects anonymous requests with 401.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()) == nil {
			jsonError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose account holds none of roles with 403.
func RequireRole(roles ...account.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAccount(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := SessionFrom(r.Context()).Account.Role
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			jsonError(w, "forbidden", http.StatusForbidden)
		}))
	}
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding error response", "err", err)
	}
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// LoginLimiter tracks failed logins per client IP.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	window   time.Duration
	max      int
}

// NewLoginLimiter allows up to 10 failures per IP per minute.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		attempts: make(map[string][]time.Time),
		window:   rateLimitWindow,
		max:      rateLimitMaxFail,
	}
}

// Limited reports whether ip has used up its failures in the current window.
func (l *LoginLimiter) Limited(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(ip, time.Now())) >= l.max
}

// RecordFailure records a failed attempt.
func (l *LoginLimiter) RecordFailure(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.attempts[ip] = append(l.prune(ip, now), now)
}

// Reset forgets the failures of ip, e.g. after a successful login.
func (l *LoginLimiter) Reset(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, ip)
}

func (l *LoginLimiter) prune(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	valid := l.attempts[ip][:0]
	for _, t := range l.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(l.attempts, ip)
		return nil
	}
	l.attempts[ip] = valid
	return valid
}

// ClientIP returns the request's remote IP without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
