package web

import (
	"net/http"

	"github.com/betna-immo/betna/internal/auth"
	"github.com/betna-immo/betna/internal/visit"
)

// apiListVisits lists visit requests. scope is mine (default), incoming or all.
func (s *Server) apiListVisits(w http.ResponseWriter, r *http.Request) {
	scope := visit.Scope(r.URL.Query().Get("scope"))
	switch scope {
	case "":
		scope = visit.ScopeMine
	case visit.ScopeMine, visit.ScopeIncoming, visit.ScopeAll:
	default:
		apiError(w, "scope must be mine, incoming or all", http.StatusBadRequest)
		return
	}

	visits, err := s.deps.Visits.List(r.Context(), auth.SessionFrom(r.Context()).Actor(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if visits == nil {
		visits = []*visit.Request{}
	}
	apiJSON(w, visits, http.StatusOK)
}

func (s *Server) apiRequestVisit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListingID string `json:"listing_id"`
		Date      string `json:"date"`
		Note      string `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := s.deps.Visits.Request(r.Context(), auth.SessionFrom(r.Context()).Actor(), req.ListingID, req.Date, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, v, http.StatusCreated)
}

func (s *Server) apiConfirmVisit(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Visits.Confirm(r.Context(), auth.SessionFrom(r.Context()).Actor(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, v, http.StatusOK)
}

func (s *Server) apiCancelVisit(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Visits.Cancel(r.Context(), auth.SessionFrom(r.Context()).Actor(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, v, http.StatusOK)
}
