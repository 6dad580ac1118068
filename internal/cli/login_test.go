package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/betna-immo/betna/internal/account"
)

func newLoginServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Header.Get("Authorization") != "" {
			http.Error(w, `{"error":"unexpected request"}`, http.StatusBadRequest)
			return
		}
		var body struct{ Email, Password string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"bad json"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if body.Email != "awa@example.ci" || body.Password != "motdepasse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid email or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":   "issued-token",
			"account": account.Account{ID: "a1", Email: body.Email, Role: account.RoleClient},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginStoresToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BETNA_SERVER_URL", "")
	// A stale token must not be sent with the login request.
	t.Setenv("BETNA_TOKEN", "stale")
	srv := newLoginServer(t)

	if err := runLogin(srv.URL, "awa@example.ci", "motdepasse", strings.NewReader("")); err != nil {
		t.Fatalf("login: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Token != "issued-token" || cfg.Email != "awa@example.ci" || cfg.ServerURL != srv.URL {
		t.Errorf("config = %+v", cfg)
	}
}

func TestLoginPrompts(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := newLoginServer(t)

	in := strings.NewReader("awa@example.ci\nmotdepasse\n")
	if err := runLogin(srv.URL, "", "", in); err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok := getToken(); tok != "issued-token" {
		t.Errorf("token = %q", tok)
	}
}

func TestLoginRejected(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := newLoginServer(t)

	err := runLogin(srv.URL, "awa@example.ci", "wrong-password", strings.NewReader(""))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid email or password") {
		t.Errorf("error = %v", err)
	}
	if cfg, _ := loadConfig(); cfg.Token != "" {
		t.Errorf("token stored after failed login: %q", cfg.Token)
	}
}

func TestLoginMissingInput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := runLogin("http://127.0.0.1:1", "", "", strings.NewReader("\n\n")); err == nil {
		t.Fatal("expected error for empty credentials")
	}
}
