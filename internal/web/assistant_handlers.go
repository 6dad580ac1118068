package web

import (
	"net/http"

	"github.com/betna-immo/betna/internal/assistant"
	"github.com/betna-immo/betna/internal/auth"
)

func (s *Server) assistantEnabled(w http.ResponseWriter) bool {
	if s.deps.Assistant == nil {
		apiError(w, "assistant not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// apiChat sends one message to the search assistant on behalf of the caller.
func (s *Server) apiChat(w http.ResponseWriter, r *http.Request) {
	if !s.assistantEnabled(w) {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, err := s.deps.Assistant.Chat(r.Context(), auth.SessionFrom(r.Context()).Account.ID, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, reply, http.StatusOK)
}

func (s *Server) apiChatHistory(w http.ResponseWriter, r *http.Request) {
	if !s.assistantEnabled(w) {
		return
	}
	msgs, err := s.deps.Assistant.Messages(r.Context(), auth.SessionFrom(r.Context()).Account.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []assistant.Message{}
	}
	apiJSON(w, msgs, http.StatusOK)
}

// apiAnalyze summarizes a free-text listing description.
func (s *Server) apiAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.assistantEnabled(w) {
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	analysis, err := s.deps.Assistant.Analyze(r.Context(), req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, analysis, http.StatusOK)
}
