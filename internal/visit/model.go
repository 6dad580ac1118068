// Package visit handles visit requests: a prospective renter asks to see a
// listing and its owner confirms or cancels.
package visit

import (
	"errors"
	"time"
)

// Status of a visit request. The zero value is pending.
type Status string

const (
	StatusPending   Status = ""
	StatusConfirmed Status = "Confirmé"
	StatusCancelled Status = "Annulé"
)

// Label returns a human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "En attente"
	default:
		return string(s)
	}
}

var (
	ErrNotFound  = errors.New("visit request not found")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid visit request")
	ErrConflict  = errors.New("visit request cannot change state")
)

// Request is a visit request with the listing's display fields copied in.
type Request struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	ListingID string    `json:"listing_id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	Price     int64     `json:"price"`
	VisitDate string    `json:"visit_date"` // YYYY-MM-DD
	Note      string    `json:"note,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
