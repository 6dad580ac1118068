package web

import (
	"net/http"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/auth"
)

// apiListAccounts lists accounts for the admin dashboard, newest first.
func (s *Server) apiListAccounts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	opts := account.ListOptions{
		Role:   account.Role(params.Get("role")),
		Status: account.Status(params.Get("status")),
		Search: params.Get("q"),
	}
	accounts, err := s.deps.Accounts.List(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []*account.Account{}
	}
	apiJSON(w, accounts, http.StatusOK)
}

// apiToggleAccountStatus flips an account between active and blocked.
func (s *Server) apiToggleAccountStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, err := s.deps.Accounts.ToggleStatus(r.Context(), auth.SessionFrom(r.Context()).Actor(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]any{"id": id, "status": status}, http.StatusOK)
}
