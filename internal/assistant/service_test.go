package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/betna-immo/betna/internal/listing"
)

type fakeModel struct {
	reply   string
	err     error
	prompts []string
}

func (m *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

type fakeFinder struct {
	listings []*listing.Listing
	queries  []listing.Query
	err      error
}

func (f *fakeFinder) List(_ context.Context, q listing.Query) ([]*listing.Listing, error) {
	f.queries = append(f.queries, q)
	return f.listings, f.err
}

func intPtr(n int) *int { return &n }

func TestChat(t *testing.T) {
	model := &fakeModel{reply: `{"replyText":"Voici des villas à Cocody.","extractedCriteria":{"location":"Cocody","stayType":"court","maxBudget":200000,"minBedrooms":3},"nextQuestion":"Pour quelle date ?"}`}
	finder := &fakeFinder{listings: []*listing.Listing{
		{ID: "l1", Title: "Villa F4", Bedrooms: intPtr(4)},
		{ID: "l2", Title: "Studio", Bedrooms: intPtr(1)},
		{ID: "l3", Title: "Sans chambres"},
	}}
	store := NewStore(testDB(t))
	svc := NewService(store, model, finder, 10)
	ctx := context.Background()

	reply, err := svc.Chat(ctx, "u1", "  Je cherche une villa à Cocody  ")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.ReplyText != "Voici des villas à Cocody." || reply.NextQuestion != "Pour quelle date ?" {
		t.Errorf("reply = %+v", reply)
	}
	if reply.LowConfidence {
		t.Error("expected confident reply")
	}
	if len(reply.Listings) != 1 || reply.Listings[0].ID != "l1" {
		t.Errorf("listings = %+v, want only l1", reply.Listings)
	}

	if len(finder.queries) != 1 {
		t.Fatalf("queries = %d, want 1", len(finder.queries))
	}
	q := finder.queries[0]
	if q.State != listing.StateVerified || q.Location != "Cocody" || q.StayType != listing.StayShort || q.MaxPrice != 200000 {
		t.Errorf("query = %+v", q)
	}

	msgs, err := svc.Messages(ctx, "u1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text != "Je cherche une villa à Cocody" || msgs[1].Role != RoleAssistant {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestChat_IncludesHistoryInPrompt(t *testing.T) {
	model := &fakeModel{reply: `{"replyText":"Noté.","extractedCriteria":{},"nextQuestion":""}`}
	svc := NewService(NewStore(testDB(t)), model, nil, 10)
	ctx := context.Background()

	if _, err := svc.Chat(ctx, "u1", "Je cherche à Yopougon"); err != nil {
		t.Fatalf("Chat 1: %v", err)
	}
	if _, err := svc.Chat(ctx, "u1", "Budget 100000"); err != nil {
		t.Fatalf("Chat 2: %v", err)
	}

	second := model.prompts[1]
	for _, want := range []string{"user: Je cherche à Yopougon", "assistant: Noté.", "user: Budget 100000"} {
		if !strings.Contains(second, want) {
			t.Errorf("prompt missing %q:\n%s", want, second)
		}
	}
	if strings.Contains(model.prompts[0], "Historique") {
		t.Error("first prompt should have no history block")
	}
}

func TestChat_HistoryLimit(t *testing.T) {
	model := &fakeModel{reply: `{"replyText":"Ok","extractedCriteria":{},"nextQuestion":""}`}
	svc := NewService(NewStore(testDB(t)), model, nil, 2)
	ctx := context.Background()

	for _, m := range []string{"un", "deux", "trois"} {
		if _, err := svc.Chat(ctx, "u1", m); err != nil {
			t.Fatalf("Chat: %v", err)
		}
	}
	last := model.prompts[2]
	if strings.Contains(last, "user: un") {
		t.Error("history beyond the limit leaked into the prompt")
	}
	if !strings.Contains(last, "user: deux") {
		t.Error("expected the most recent history in the prompt")
	}
}

func TestChat_ModelFailureGivesCannedReply(t *testing.T) {
	model := &fakeModel{err: errors.New("quota exceeded")}
	finder := &fakeFinder{}
	svc := NewService(NewStore(testDB(t)), model, finder, 10)

	reply, err := svc.Chat(context.Background(), "u1", "Bonjour")
	if err != nil {
		t.Fatalf("Chat returned error %v, want canned reply", err)
	}
	if reply.ReplyText != cannedReply || !reply.LowConfidence {
		t.Errorf("reply = %+v", reply)
	}
	if len(finder.queries) != 0 {
		t.Error("no listing lookup expected on model failure")
	}
}

func TestChat_NoModel(t *testing.T) {
	svc := NewService(NewStore(testDB(t)), nil, nil, 10)
	reply, err := svc.Chat(context.Background(), "u1", "Bonjour")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.ReplyText != cannedReply {
		t.Errorf("ReplyText = %q, want canned reply", reply.ReplyText)
	}
}

func TestChat_FreeTextFallback(t *testing.T) {
	model := &fakeModel{reply: "Je n'ai pas compris, pouvez-vous préciser ?"}
	finder := &fakeFinder{}
	svc := NewService(NewStore(testDB(t)), model, finder, 10)

	reply, err := svc.Chat(context.Background(), "u1", "???")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !reply.LowConfidence || reply.ReplyText != model.reply {
		t.Errorf("reply = %+v", reply)
	}
	if len(finder.queries) != 0 {
		t.Error("no listing lookup expected without criteria")
	}
}

func TestChat_ListingLookupFailure(t *testing.T) {
	model := &fakeModel{reply: `{"replyText":"Ok","extractedCriteria":{"location":"Plateau"},"nextQuestion":""}`}
	finder := &fakeFinder{err: errors.New("db down")}
	svc := NewService(NewStore(testDB(t)), model, finder, 10)

	reply, err := svc.Chat(context.Background(), "u1", "Plateau")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Listings != nil {
		t.Errorf("listings = %+v, want none", reply.Listings)
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	svc := NewService(NewStore(testDB(t)), &fakeModel{}, nil, 10)
	if _, err := svc.Chat(context.Background(), "u1", "   "); !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestAnalyze(t *testing.T) {
	model := &fakeModel{reply: `{"summary":"Villa familiale","highlights":["jardin"],"keywords":["villa"]}`}
	svc := NewService(NewStore(testDB(t)), model, nil, 10)

	a, err := svc.Analyze(context.Background(), "Grande villa avec jardin à Cocody.")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Summary != "Villa familiale" || a.LowConfidence {
		t.Errorf("analysis = %+v", a)
	}
	if !strings.Contains(model.prompts[0], "Grande villa avec jardin") {
		t.Error("description missing from prompt")
	}

	if _, err := svc.Analyze(context.Background(), ""); !errors.Is(err, ErrInvalid) {
		t.Errorf("empty: err = %v, want ErrInvalid", err)
	}

	model.err = errors.New("boom")
	if _, err := svc.Analyze(context.Background(), "texte"); err == nil {
		t.Error("expected error on model failure")
	}
}
