package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/assistant"
	"github.com/betna-immo/betna/internal/auth"
	"github.com/betna-immo/betna/internal/broker"
	"github.com/betna-immo/betna/internal/db"
	"github.com/betna-immo/betna/internal/email"
	"github.com/betna-immo/betna/internal/favorite"
	"github.com/betna-immo/betna/internal/listing"
	"github.com/betna-immo/betna/internal/visit"
)

const testAdminEmail = "admin@betna.test"

type fakeUploader struct {
	names []string
}

func (f *fakeUploader) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.names = append(f.names, name)
	return "https://img.test/" + name, nil
}

type fakeModel struct {
	reply string
}

func (m *fakeModel) Generate(context.Context, string) (string, error) {
	return m.reply, nil
}

type testEnv struct {
	srv    *Server
	db     *sql.DB
	images *fakeUploader
	model  *fakeModel
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	b := broker.NewLocal()
	accounts := account.NewStore(d, testAdminEmail)
	listings := listing.NewService(listing.NewRepository(d), b)
	tokens, err := auth.NewTokenIssuer("test-secret-0123456789", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}

	env := &testEnv{db: d, images: &fakeUploader{}, model: &fakeModel{}}
	env.srv, err = NewServer(Deps{
		BaseURL:       "http://localhost:8080",
		Accounts:      accounts,
		Listings:      listings,
		Visits:        visit.NewService(visit.NewRepository(d), listings, nil),
		Favorites:     favorite.NewRepository(d, listings),
		Assistant:     assistant.NewService(assistant.NewStore(d), env.model, listings, 10),
		Images:        env.images,
		Tokens:        tokens,
		Sessions:      auth.NewSessionStore(d),
		Verifications: auth.NewVerificationStore(d),
		Passkeys:      auth.NewPasskeyStore(d),
		Mailer:        auth.NewMailer(email.NewSMTPSender(email.SMTPConfig{}, true), "http://localhost:8080", true),
		Identity:      auth.NewIdentity(b),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return env
}

func apiRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	reqBody := &bytes.Buffer{}
	if body != nil {
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}

// register creates an account over the API and returns its bearer token.
func (e *testEnv) register(t *testing.T, mail string, role account.Role) (string, *account.Account) {
	t.Helper()
	w := apiRequest(t, e.srv, http.MethodPost, "/auth/register", "", account.Registration{
		Email:    mail,
		Password: "motdepasse",
		FullName: "Test " + string(role),
		Role:     role,
	})
	wantStatus(t, w, http.StatusCreated)
	resp := decode[loginResponse](t, w)
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	return resp.Token, resp.Account
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := apiRequest(t, env.srv, http.MethodGet, "/health", "", nil)
	wantStatus(t, w, http.StatusOK)
	if got := decode[map[string]string](t, w); got["status"] != "ok" {
		t.Errorf("health = %v", got)
	}
}

func TestInvalidBearerToken(t *testing.T) {
	env := newTestEnv(t)
	w := apiRequest(t, env.srv, http.MethodGet, "/api/listings", "not-a-token", nil)
	wantStatus(t, w, http.StatusUnauthorized)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	w := apiRequest(t, env.srv, http.MethodPatch, "/api/listings", "", nil)
	wantStatus(t, w, http.StatusMethodNotAllowed)
}

func TestUnknownErrorsAreHidden(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	writeError(w, r, io.ErrUnexpectedEOF)
	wantStatus(t, w, http.StatusInternalServerError)
	if got := decode[errorResponse](t, w); got.Error == io.ErrUnexpectedEOF.Error() {
		t.Error("internal error leaked to client")
	}
}
