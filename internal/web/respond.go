package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/assistant"
	"github.com/betna-immo/betna/internal/auth"
	"github.com/betna-immo/betna/internal/billing"
	"github.com/betna-immo/betna/internal/favorite"
	"github.com/betna-immo/betna/internal/imagehost"
	"github.com/betna-immo/betna/internal/listing"
	"github.com/betna-immo/betna/internal/visit"
)

const maxJSONBody = 1 << 20

// errorResponse is the body of every error answer.
type errorResponse struct {
	Error  string               `json:"error"`
	Code   string               `json:"code,omitempty"`
	Fields []listing.FieldError `json:"fields,omitempty"`
}

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, errorResponse{Error: msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "err", err)
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps a domain error to a status code. Unexpected errors are
// logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *listing.ValidationError
	if errors.As(err, &verr) {
		apiJSON(w, errorResponse{Error: verr.Error(), Code: "invalid-argument", Fields: verr.Fields}, http.StatusBadRequest)
		return
	}

	var berr *billing.Error
	if errors.As(err, &berr) {
		status := http.StatusInternalServerError
		switch berr.Code {
		case billing.CodeUnauthenticated:
			status = http.StatusUnauthorized
		case billing.CodeInvalidArgument:
			status = http.StatusBadRequest
		case billing.CodeFailedPrecondition:
			status = http.StatusPreconditionFailed
		default:
			slog.Error("billing error", "path", r.URL.Path, "err", err)
		}
		apiJSON(w, errorResponse{Error: berr.Message, Code: string(berr.Code)}, status)
		return
	}

	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = "une erreur est survenue, veuillez réessayer"
	}
	apiError(w, msg, status)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, listing.ErrInvalid),
		errors.Is(err, account.ErrInvalid),
		errors.Is(err, visit.ErrInvalid),
		errors.Is(err, assistant.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, listing.ErrSubscriptionRequired):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, listing.ErrForbidden),
		errors.Is(err, account.ErrForbidden),
		errors.Is(err, account.ErrBlocked),
		errors.Is(err, visit.ErrForbidden),
		errors.Is(err, favorite.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, listing.ErrNotFound),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, visit.ErrNotFound),
		errors.Is(err, favorite.ErrNotFound),
		errors.Is(err, auth.ErrCredentialNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, account.ErrExists),
		errors.Is(err, visit.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, imagehost.ErrNotConfigured),
		errors.Is(err, assistant.ErrNoModel):
		return http.StatusServiceUnavailable, err.Error()
	}
	return http.StatusInternalServerError, fmt.Sprint(err)
}
