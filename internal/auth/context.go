// Package auth resolves who is making a request: bearer identity tokens,
// cookie sessions, passkeys and email verification.
package auth

import (
	"context"
	"errors"

	"github.com/betna-immo/betna/internal/account"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid or expired token")
)

// Session is the resolved identity of a request. It is passed explicitly
// through the request context, never held globally.
type Session struct {
	Account       *account.Account
	EmailVerified bool
	// Claims is set when the request used a bearer token.
	Claims *Claims
}

// Actor returns the permission identity of the session.
func (s *Session) Actor() account.Actor {
	return s.Account.Actor()
}

type sessionKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session attached to ctx, or nil.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
