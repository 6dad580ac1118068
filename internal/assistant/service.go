// Package assistant is the conversational search helper: it keeps a short
// history per account, asks a hosted language model for a structured reply
// and suggests verified listings matching what the user asked for.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/betna-immo/betna/internal/listing"
)

// ErrInvalid is returned for an empty message or description.
var ErrInvalid = errors.New("message is required")

const maxSuggestions = 5

// ListingFinder queries the catalogue.
type ListingFinder interface {
	List(ctx context.Context, q listing.Query) ([]*listing.Listing, error)
}

// Service runs chat turns and description analyses.
type Service struct {
	store    *Store
	model    Model
	listings ListingFinder
	history  int
}

// NewService creates an assistant. model may be nil, in which case every
// turn gets the technical-difficulty reply.
func NewService(store *Store, model Model, listings ListingFinder, history int) *Service {
	return &Service{store: store, model: model, listings: listings, history: history}
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if s.model == nil {
		return "", ErrNoModel
	}
	return s.model.Generate(ctx, prompt)
}

// Chat runs one conversation turn for accountID. Model failures are not
// returned as errors: the caller gets the canned reply instead.
func (s *Service) Chat(ctx context.Context, accountID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrInvalid
	}

	history, err := s.store.History(ctx, accountID, s.history)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if _, err := s.store.Append(ctx, accountID, RoleUser, message); err != nil {
		return nil, fmt.Errorf("saving message: %w", err)
	}

	raw, err := s.generate(ctx, chatPrompt(history, message))
	if err != nil {
		slog.Error("assistant model call failed", "account", accountID, "err", err)
		return &Reply{ReplyText: cannedReply, LowConfidence: true}, nil
	}

	reply := parseReply(raw)
	if reply.LowConfidence {
		slog.Warn("assistant reply did not match schema", "account", accountID)
	}
	reply.Listings = s.suggest(ctx, reply.ExtractedCriteria)

	if _, err := s.store.Append(ctx, accountID, RoleAssistant, reply.ReplyText); err != nil {
		slog.Warn("saving assistant reply", "account", accountID, "err", err)
	}
	return &reply, nil
}

// suggest returns verified listings matching c. Lookup failures yield none.
func (s *Service) suggest(ctx context.Context, c Criteria) []*listing.Listing {
	if c.IsZero() || s.listings == nil {
		return nil
	}
	q := listing.Query{
		State:    listing.StateVerified,
		Location: c.Location,
		MaxPrice: c.MaxBudget,
		Sort:     listing.SortNewest,
	}
	if c.StayType != "" {
		if st, ok := listing.ParseStayType(c.StayType); ok {
			q.StayType = st
		}
	}

	found, err := s.listings.List(ctx, q)
	if err != nil {
		slog.Warn("assistant listing lookup", "err", err)
		return nil
	}
	var out []*listing.Listing
	for _, l := range found {
		if c.MinBedrooms > 0 && (l.Bedrooms == nil || *l.Bedrooms < c.MinBedrooms) {
			continue
		}
		out = append(out, l)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// Messages returns the account's whole conversation, oldest first.
func (s *Service) Messages(ctx context.Context, accountID string) ([]Message, error) {
	return s.store.History(ctx, accountID, 0)
}

// Analyze summarizes a listing description. A model failure is returned as
// an error since there is no sensible canned analysis.
func (s *Service) Analyze(ctx context.Context, description string) (*Analysis, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrInvalid
	}
	raw, err := s.generate(ctx, analyzePrompt(description))
	if err != nil {
		return nil, fmt.Errorf("analyzing description: %w", err)
	}
	a := parseAnalysis(raw)
	return &a, nil
}
