// Package account manages registered accounts, their roles, status and subscription.
package account

import (
	"errors"
	"time"
)

// Role is assigned at registration and never changes afterwards.
type Role string

const (
	RoleClient Role = "client"
	RoleOwner  Role = "proprietaire"
	RoleAdmin  Role = "admin"
)

// Status is the admin-controlled suspension flag.
type Status string

const (
	StatusActive  Status = "actif"
	StatusBlocked Status = "bloqué"
)

// PlanNone is the plan every account starts with.
const PlanNone = "none"

var (
	ErrNotFound           = errors.New("account not found")
	ErrExists             = errors.New("account already exists")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalid            = errors.New("invalid account")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBlocked            = errors.New("account is blocked")
)

// Subscription is the stored billing state of an account.
type Subscription struct {
	Plan      string     `json:"plan"`
	Active    bool       `json:"active"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
}

// Account represents a registered user.
type Account struct {
	ID             string       `json:"id"`
	Email          string       `json:"email"`
	FullName       string       `json:"full_name"`
	Phone          string       `json:"phone"`
	Role           Role         `json:"role"`
	Status         Status       `json:"status"`
	EmailVerified  bool         `json:"email_verified"`
	Subscription   Subscription `json:"subscription"`
	StripeCustomer string       `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Actor returns the identity used for permission checks.
func (a *Account) Actor() Actor {
	return Actor{ID: a.ID, Role: a.Role}
}

// Blocked reports whether the account is suspended.
func (a *Account) Blocked() bool {
	return a.Status == StatusBlocked
}

// Actor is the account performing an operation.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Registration is the input to Store.Register.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=8"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
	Role     Role   `json:"role" validate:"oneof=client proprietaire"`
}
