package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/betna-immo/betna/internal/auth"
	"github.com/betna-immo/betna/internal/listing"
)

const watchHeartbeat = 25 * time.Second

// listingQuery builds a listing query from URL parameters.
func listingQuery(r *http.Request) (listing.Query, error) {
	params := r.URL.Query()
	q := listing.Query{
		Location: params.Get("location"),
		Search:   params.Get("q"),
		Sort:     listing.Sort(params.Get("sort")),
	}

	switch {
	case params.Get("verified") == "true":
		q.State = listing.StateVerified
	case params.Get("state") != "":
		q.State = listing.State(params.Get("state"))
		if q.State != listing.StatePending && q.State != listing.StateVerified {
			return q, fmt.Errorf("%w: state must be pending or verified", listing.ErrInvalid)
		}
	}

	if stay := params.Get("stay"); stay != "" {
		st, ok := listing.ParseStayType(stay)
		if !ok {
			return q, fmt.Errorf("%w: stay must be long or short", listing.ErrInvalid)
		}
		q.StayType = st
	}

	switch q.Sort {
	case "", listing.SortNewest, listing.SortOldest, listing.SortPriceAsc, listing.SortPriceDesc:
	default:
		return q, fmt.Errorf("%w: sort must be newest, oldest, price_asc or price_desc", listing.ErrInvalid)
	}

	for _, p := range []struct {
		name string
		dst  *int64
	}{{"min_price", &q.MinPrice}, {"max_price", &q.MaxPrice}} {
		if v := params.Get(p.name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return q, fmt.Errorf("%w: %s must be a non-negative integer", listing.ErrInvalid, p.name)
			}
			*p.dst = n
		}
	}

	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, fmt.Errorf("%w: limit must be a positive integer", listing.ErrInvalid)
		}
		q.Limit = n
	}

	if owner := params.Get("owner"); owner != "" {
		if owner != "me" {
			return q, fmt.Errorf("%w: owner must be me", listing.ErrInvalid)
		}
		sess := auth.SessionFrom(r.Context())
		if sess == nil {
			return q, auth.ErrUnauthenticated
		}
		q.OwnerID = sess.Account.ID
	}
	return q, nil
}

// apiListListings returns the listings matching the query parameters.
func (s *Server) apiListListings(w http.ResponseWriter, r *http.Request) {
	q, err := listingQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listings, err := s.deps.Listings.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if listings == nil {
		listings = []*listing.Listing{}
	}
	apiJSON(w, listings, http.StatusOK)
}

// apiSubmitListing creates a pending listing owned by the caller.
func (s *Server) apiSubmitListing(w http.ResponseWriter, r *http.Request) {
	var d listing.Draft
	if !decodeJSON(w, r, &d) {
		return
	}
	l, err := s.deps.Listings.Submit(r.Context(), auth.SessionFrom(r.Context()).Actor(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, l, http.StatusCreated)
}

// apiGetListing returns one listing.
func (s *Server) apiGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.Listings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, l, http.StatusOK)
}

// apiEditListing replaces the mutable fields of a listing.
func (s *Server) apiEditListing(w http.ResponseWriter, r *http.Request) {
	var d listing.Draft
	if !decodeJSON(w, r, &d) {
		return
	}
	l, err := s.deps.Listings.Edit(r.Context(), auth.SessionFrom(r.Context()).Actor(), r.PathValue("id"), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, l, http.StatusOK)
}

// apiDeleteListing removes a listing.
func (s *Server) apiDeleteListing(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Listings.Delete(r.Context(), auth.SessionFrom(r.Context()).Actor(), id); err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]any{"id": id, "deleted": true}, http.StatusOK)
}

// apiApproveListing marks a pending listing verified.
func (s *Server) apiApproveListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.Listings.Approve(r.Context(), auth.SessionFrom(r.Context()).Actor(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, l, http.StatusOK)
}

// apiListPending returns the moderation queue, oldest first.
func (s *Server) apiListPending(w http.ResponseWriter, r *http.Request) {
	listings, err := s.deps.Listings.List(r.Context(), listing.Query{State: listing.StatePending, Sort: listing.SortOldest})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if listings == nil {
		listings = []*listing.Listing{}
	}
	apiJSON(w, listings, http.StatusOK)
}

// apiWatchListings streams query snapshots as Server-Sent Events: one
// "snapshot" event immediately, then one after every change.
func (s *Server) apiWatchListings(w http.ResponseWriter, r *http.Request) {
	q, err := listingQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		apiError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := s.deps.Listings.Watch(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(watchHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snapshot, ok := <-sub.C:
			if !ok {
				return
			}
			if snapshot == nil {
				snapshot = []*listing.Listing{}
			}
			data, err := json.Marshal(snapshot)
			if err != nil {
				slog.Error("encoding snapshot", "err", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
