package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/betna-immo/betna/internal/account"
)

type fakeAccounts map[string]*account.Account

func (f fakeAccounts) Get(_ context.Context, id string) (*account.Account, error) {
	if a, ok := f[id]; ok {
		return a, nil
	}
	return nil, account.ErrNotFound
}

func testAuthenticator(t *testing.T) (*Authenticator, *SessionStore) {
	t.Helper()
	sessions := NewSessionStore(testDB(t))
	accounts := fakeAccounts{
		"owner": {ID: "owner", Role: account.RoleOwner, EmailVerified: true},
		"admin": {ID: "admin", Role: account.RoleAdmin},
	}
	return NewAuthenticator(testIssuer(t), sessions, accounts), sessions
}

// echo writes the resolved account id, or "anonymous".
var echo = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if s := SessionFrom(r.Context()); s != nil {
		_, _ = w.Write([]byte(s.Account.ID))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
})

func TestAuthenticateBearer(t *testing.T) {
	a, _ := testAuthenticator(t)
	token, err := a.tokens.Issue(&account.Account{ID: "owner", Role: account.RoleOwner})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/listings", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.Authenticate(echo).ServeHTTP(w, r)

	if w.Code != http.StatusOK || w.Body.String() != "owner" {
		t.Errorf("got %d %q, want 200 owner", w.Code, w.Body.String())
	}
}

func TestAuthenticateCookie(t *testing.T) {
	a, sessions := testAuthenticator(t)

	rec := httptest.NewRecorder()
	if err := sessions.Create(context.Background(), rec, "admin"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie(t, rec))
	w := httptest.NewRecorder()
	a.Authenticate(echo).ServeHTTP(w, r)

	if w.Body.String() != "admin" {
		t.Errorf("got %q, want admin", w.Body.String())
	}
}

func TestAuthenticateAnonymousAndInvalid(t *testing.T) {
	a, _ := testAuthenticator(t)

	w := httptest.NewRecorder()
	a.Authenticate(echo).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Body.String() != "anonymous" {
		t.Errorf("got %q, want anonymous", w.Body.String())
	}

	for _, header := range []string{"Bearer garbage", "Basic dXNlcjpwYXNz"} {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		a.Authenticate(echo).ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%q: status = %d, want 401", header, w.Code)
		}
	}
}

func TestAuthenticateUnknownSubject(t *testing.T) {
	a, _ := testAuthenticator(t)
	token, err := a.tokens.Issue(&account.Account{ID: "deleted", Role: account.RoleClient})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.Authenticate(echo).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(account.RoleAdmin)(echo)

	tests := []struct {
		name    string
		session *Session
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"owner", &Session{Account: &account.Account{ID: "o", Role: account.RoleOwner}}, http.StatusForbidden},
		{"admin", &Session{Account: &account.Account{ID: "a", Role: account.RoleAdmin}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/admin/accounts", nil)
			if tt.session != nil {
				r = r.WithContext(WithSession(r.Context(), tt.session))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter()

	for i := 0; i < rateLimitMaxFail; i++ {
		if l.Limited("10.0.0.1") {
			t.Fatalf("limited after %d failures", i)
		}
		l.RecordFailure("10.0.0.1")
	}
	if !l.Limited("10.0.0.1") {
		t.Error("expected limit after max failures")
	}
	if l.Limited("10.0.0.2") {
		t.Error("other IPs must not be limited")
	}

	l.Reset("10.0.0.1")
	if l.Limited("10.0.0.1") {
		t.Error("expected reset to clear failures")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	if got := ClientIP(r); got != "192.0.2.7" {
		t.Errorf("ClientIP = %q", got)
	}
}
