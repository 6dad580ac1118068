package logging

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers work through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

type requestInfoKey struct{}

// requestInfo is filled in by handlers further down the chain.
type requestInfo struct {
	account string
}

// SetAccount records the acting account id for the request log line.
// It is a no-op outside RequestLogger.
func SetAccount(ctx context.Context, accountID string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.account = accountID
	}
}

// quietPaths are logged at debug only.
var quietPaths = map[string]bool{
	"/health":             true,
	"/api/listings/watch": true,
}

// RequestLogger is middleware that logs HTTP requests.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		info := &requestInfo{}

		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))

		level := slog.LevelInfo
		switch {
		case rw.status >= 500:
			level = slog.LevelError
		case rw.status >= 400:
			level = slog.LevelWarn
		case quietPaths[r.URL.Path]:
			level = slog.LevelDebug
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start).String(),
			"ip", r.RemoteAddr,
		}
		if info.account != "" {
			attrs = append(attrs, "account", info.account)
		}
		slog.Log(r.Context(), level, "request", attrs...)
	})
}
