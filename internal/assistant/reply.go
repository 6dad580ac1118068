package assistant

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/betna-immo/betna/internal/listing"
)

// cannedReply is returned when the model cannot be reached.
const cannedReply = "Désolé, je rencontre une difficulté technique. Veuillez réessayer dans quelques instants."

// Criteria are the search preferences the model picked out of the conversation.
type Criteria struct {
	Location    string `json:"location,omitempty"`
	StayType    string `json:"stayType,omitempty"`
	MaxBudget   int64  `json:"maxBudget,omitempty"`
	MinBedrooms int    `json:"minBedrooms,omitempty"`
}

// IsZero reports whether no criterion was extracted.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Reply is the structured assistant answer.
type Reply struct {
	ReplyText         string             `json:"replyText"`
	ExtractedCriteria Criteria           `json:"extractedCriteria"`
	NextQuestion      string             `json:"nextQuestion"`
	LowConfidence     bool               `json:"lowConfidence"`
	Listings          []*listing.Listing `json:"listings,omitempty"`
}

// Analysis is the structured summary of a listing description.
type Analysis struct {
	Summary       string   `json:"summary"`
	Highlights    []string `json:"highlights"`
	Keywords      []string `json:"keywords"`
	LowConfidence bool     `json:"lowConfidence"`
}

// decodeStrict decodes raw into v, rejecting unknown fields and trailing data.
// Markdown code fences around the object are tolerated.
func decodeStrict(raw string, v any) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after object")
	}
	return nil
}

// parseReply parses model output against the Reply schema. When the output
// does not match, the raw text becomes the reply and the result is marked
// low-confidence.
func parseReply(raw string) Reply {
	var r Reply
	if err := decodeStrict(raw, &r); err == nil && strings.TrimSpace(r.ReplyText) != "" {
		r.LowConfidence = false
		r.Listings = nil
		return r
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		text = cannedReply
	}
	return Reply{ReplyText: text, LowConfidence: true}
}

// parseAnalysis is parseReply for the description summarizer.
func parseAnalysis(raw string) Analysis {
	var a Analysis
	if err := decodeStrict(raw, &a); err == nil && strings.TrimSpace(a.Summary) != "" {
		a.LowConfidence = false
		return a
	}
	return Analysis{Summary: strings.TrimSpace(raw), LowConfidence: true}
}
