package auth

import (
	"context"
	"net/http"

	"github.com/betna-immo/betna/internal/broker"
)

// Change kinds fired through Identity.OnChange.
const (
	ChangeLogin  = "login"
	ChangeLogout = "logout"
)

// Identity exposes the current account of a request and a stream of
// login/logout changes.
type Identity struct {
	broker broker.Broker
}

// NewIdentity creates an Identity publishing on b.
func NewIdentity(b broker.Broker) *Identity {
	return &Identity{broker: b}
}

// Current returns the session of r, or nil when anonymous.
func (i *Identity) Current(r *http.Request) *Session {
	return SessionFrom(r.Context())
}

// Notify publishes a login or logout for accountID.
func (i *Identity) Notify(ctx context.Context, kind, accountID string) {
	i.broker.Publish(ctx, broker.Event{Topic: broker.TopicIdentity, Kind: kind, Account: accountID})
}

// OnChange calls fn for every login and logout until the returned stop func is called.
func (i *Identity) OnChange(fn func(kind, accountID string)) (stop func()) {
	events, cancel := i.broker.Subscribe(broker.TopicIdentity)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			fn(ev.Kind, ev.Account)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
