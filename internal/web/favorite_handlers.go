package web

import (
	"net/http"

	"github.com/betna-immo/betna/internal/auth"
	"github.com/betna-immo/betna/internal/favorite"
)

func (s *Server) apiListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.deps.Favorites.ListByAccount(r.Context(), auth.SessionFrom(r.Context()).Account.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if favs == nil {
		favs = []*favorite.Favorite{}
	}
	apiJSON(w, favs, http.StatusOK)
}

func (s *Server) apiAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListingID string `json:"listing_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ListingID == "" {
		apiError(w, "listing_id is required", http.StatusBadRequest)
		return
	}
	fav, err := s.deps.Favorites.Add(r.Context(), auth.SessionFrom(r.Context()).Account.ID, req.ListingID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, fav, http.StatusCreated)
}

func (s *Server) apiRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Favorites.Remove(r.Context(), auth.SessionFrom(r.Context()).Account.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]any{"id": id, "deleted": true}, http.StatusOK)
}
