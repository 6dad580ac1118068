package web

import (
	"net/http"
	"testing"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/assistant"
)

func TestAssistantChat(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.register(t, testAdminEmail, account.RoleClient)
	ownerToken, _ := env.register(t, "awa@example.com", account.RoleOwner)
	clientToken, _ := env.register(t, "kofi@example.com", account.RoleClient)

	l := submitListing(t, env, ownerToken, testDraft("Villa", "Cocody, Abidjan", 450000))
	w := apiRequest(t, env.srv, http.MethodPost, "/api/listings/"+l.ID+"/approve", adminToken, nil)
	wantStatus(t, w, http.StatusOK)

	env.model.reply = `{"replyText":"Voici ce que j'ai trouvé à Cocody.","extractedCriteria":{"location":"Cocody","maxBudget":500000},"nextQuestion":"Combien de chambres ?","lowConfidence":false}`

	w = apiRequest(t, env.srv, http.MethodPost, "/api/assistant/chat", clientToken, map[string]string{
		"message": "Je cherche une maison à Cocody",
	})
	wantStatus(t, w, http.StatusOK)
	reply := decode[assistant.Reply](t, w)
	if reply.LowConfidence || reply.ExtractedCriteria.Location != "Cocody" {
		t.Errorf("reply = %+v", reply)
	}
	if len(reply.Listings) != 1 || reply.Listings[0].ID != l.ID {
		t.Errorf("suggested listings = %+v", reply.Listings)
	}

	w = apiRequest(t, env.srv, http.MethodGet, "/api/assistant/messages", clientToken, nil)
	wantStatus(t, w, http.StatusOK)
	msgs := decode[[]assistant.Message](t, w)
	if len(msgs) != 2 || msgs[0].Role != assistant.RoleUser || msgs[1].Role != assistant.RoleAssistant {
		t.Errorf("messages = %+v", msgs)
	}

	// Conversations are per account.
	w = apiRequest(t, env.srv, http.MethodGet, "/api/assistant/messages", ownerToken, nil)
	if got := decode[[]assistant.Message](t, w); len(got) != 0 {
		t.Errorf("owner messages = %d, want 0", len(got))
	}
}

func TestAssistantErrors(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "kofi@example.com", account.RoleClient)

	w := apiRequest(t, env.srv, http.MethodPost, "/api/assistant/chat", "", map[string]string{"message": "bonjour"})
	wantStatus(t, w, http.StatusUnauthorized)

	w = apiRequest(t, env.srv, http.MethodPost, "/api/assistant/chat", token, map[string]string{"message": "  "})
	wantStatus(t, w, http.StatusBadRequest)

	env.srv.deps.Assistant = nil
	w = apiRequest(t, env.srv, http.MethodPost, "/api/assistant/chat", token, map[string]string{"message": "bonjour"})
	wantStatus(t, w, http.StatusServiceUnavailable)
}

func TestAssistantAnalyze(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "awa@example.com", account.RoleOwner)
	env.model.reply = `{"summary":"Villa lumineuse","highlights":["piscine"],"keywords":["villa","cocody"],"lowConfidence":false}`

	w := apiRequest(t, env.srv, http.MethodPost, "/api/assistant/analyze", token, map[string]string{
		"description": "Belle villa avec piscine à Cocody",
	})
	wantStatus(t, w, http.StatusOK)
	if got := decode[assistant.Analysis](t, w); got.Summary != "Villa lumineuse" || len(got.Highlights) != 1 {
		t.Errorf("analysis = %+v", got)
	}
}
