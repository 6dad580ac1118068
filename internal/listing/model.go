// Package listing implements the listing lifecycle: submission, owner edits,
// admin moderation, deletion and live catalogue queries.
package listing

import (
	"strings"
	"time"
)

// State is the moderation state of a persisted listing.
// Listings only ever move from pending to verified.
type State string

const (
	StatePending  State = "pending"
	StateVerified State = "verified"
)

// StayType categorizes rentals: long (monthly) or short (daily/weekly).
type StayType string

const (
	StayLong  StayType = "long"
	StayShort StayType = "short"
)

// ParseStayType normalizes user input. "court" is accepted for short stays.
func ParseStayType(s string) (StayType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return StayLong, true
	case "short", "court":
		return StayShort, true
	}
	return StayType(s), false
}

// Agent is the optional contact block shown to prospective renters.
type Agent struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// Draft is a listing that has not been persisted yet, or the new content of an edit.
type Draft struct {
	Title       string   `json:"title" validate:"required"`
	Location    string   `json:"location"`
	Price       int64    `json:"price" validate:"gt=0"`
	Description string   `json:"description"`
	Bedrooms    *int     `json:"bedrooms,omitempty" validate:"omitempty,min=0"`
	Bathrooms   *int     `json:"bathrooms,omitempty" validate:"omitempty,min=0"`
	StayType    StayType `json:"stay_type" validate:"oneof=long short"`
	Images      []string `json:"images" validate:"min=1,dive,required"`
	Agent       Agent    `json:"agent"`
}

// Listing is a property offered for rent or sale. Price is in FCFA.
type Listing struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Price       int64     `json:"price"`
	Description string    `json:"description,omitempty"`
	Bedrooms    *int      `json:"bedrooms,omitempty"`
	Bathrooms   *int      `json:"bathrooms,omitempty"`
	StayType    StayType  `json:"stay_type"`
	Images      []string  `json:"images"`
	State       State     `json:"state"`
	Agent       Agent     `json:"agent"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Verified reports whether the listing passed moderation.
func (l *Listing) Verified() bool {
	return l.State == StateVerified
}

// Draft returns the listing's mutable content, for building edits.
func (l *Listing) Draft() Draft {
	return Draft{
		Title:       l.Title,
		Location:    l.Location,
		Price:       l.Price,
		Description: l.Description,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		StayType:    l.StayType,
		Images:      append([]string(nil), l.Images...),
		Agent:       l.Agent,
	}
}

// apply overwrites the mutable fields with d.
func (l *Listing) apply(d Draft) {
	l.Title = d.Title
	l.Location = d.Location
	l.Price = d.Price
	l.Description = d.Description
	l.Bedrooms = d.Bedrooms
	l.Bathrooms = d.Bathrooms
	l.StayType = d.StayType
	l.Images = d.Images
	l.Agent = d.Agent
}
