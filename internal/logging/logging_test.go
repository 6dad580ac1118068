package logging

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	return &buf
}

func TestSetupModes(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	Setup(true, "")
	if !slog.Default().Enabled(t.Context(), slog.LevelDebug) {
		t.Error("expected debug enabled in dev mode")
	}

	Setup(false, "")
	if slog.Default().Enabled(t.Context(), slog.LevelDebug) {
		t.Error("expected debug disabled in prod mode")
	}

	Setup(false, "error")
	if slog.Default().Enabled(t.Context(), slog.LevelWarn) {
		t.Error("expected warn disabled with error level override")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"", slog.LevelInfo, false},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetAccount(r.Context(), "acct-1")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/listings", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"GET", "/api/listings", "status=200", "account=acct-1"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("expected %q in log, got %q", want, out)
		}
	}
}

func TestRequestLoggerQuietPaths(t *testing.T) {
	for _, path := range []string{"/health", "/api/listings/watch"} {
		t.Run(path, func(t *testing.T) {
			buf := captureLogs(t, slog.LevelInfo)

			handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))

			if buf.Len() > 0 {
				t.Errorf("expected no info log for %s, got %q", path, buf.String())
			}
		})
	}
}

func TestRequestLoggerCapturesStatus(t *testing.T) {
	buf := captureLogs(t, slog.LevelDebug)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))

	if !bytes.Contains(buf.Bytes(), []byte("404")) {
		t.Error("expected 404 status in log")
	}
	if !bytes.Contains(buf.Bytes(), []byte("level=WARN")) {
		t.Error("expected 4xx logged at warn")
	}
}

func TestSetAccountOutsideMiddleware(t *testing.T) {
	// must not panic without the logger's context value
	SetAccount(t.Context(), "x")
}
