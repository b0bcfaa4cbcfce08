package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pathwise/pathwise/internal/catalog"
)

func testCandidates() []catalog.ContentItem {
	return []catalog.ContentItem{
		{ID: "c1", Title: "Intro to Fractions", Subject: "algebra", ContentType: catalog.TypeLesson, Difficulty: 2, EstimatedMinutes: 15},
		{ID: "c2", Title: "Fraction Drills", Subject: "algebra", ContentType: catalog.TypeExercise, Difficulty: 3, EstimatedMinutes: 20},
	}
}

func TestClient_Suggest(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"suggestions":[
			{"content_id":"c2","score":0.9,"reasoning":"closes the fractions gap"},
			{"content_id":"c1","score":0.6,"reasoning":"good grounding"}
		]}`),
	})
	client := NewClient(mock, DefaultConfig(), nil)

	got, err := client.Suggest(context.Background(), SuggestionContext{
		UserID:     "alice",
		Subjects:   []SubjectSummary{{Subject: "algebra", OverallMastery: 0.4, GapSkills: []string{"fractions"}}},
		Candidates: testCandidates(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].ContentID != "c2" || got[0].Score != 0.9 {
		t.Fatalf("unexpected first suggestion: %+v", got[0])
	}
}

func TestClient_SuggestDropsUnknownIDs(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"suggestions":[
			{"content_id":"hallucinated","score":0.99,"reasoning":"made up"},
			{"content_id":"c1","score":0.5,"reasoning":"real"}
		]}`),
	})
	client := NewClient(mock, DefaultConfig(), nil)

	got, err := client.Suggest(context.Background(), SuggestionContext{
		UserID:     "alice",
		Candidates: testCandidates(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ContentID != "c1" {
		t.Fatalf("expected only c1 to survive, got: %+v", got)
	}
}

func TestClient_SuggestClampsScores(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"suggestions":[
			{"content_id":"c1","score":1.7,"reasoning":"over"},
			{"content_id":"c2","score":-0.3,"reasoning":"under"}
		]}`),
	})
	client := NewClient(mock, DefaultConfig(), nil)

	got, err := client.Suggest(context.Background(), SuggestionContext{
		UserID:     "alice",
		Candidates: testCandidates(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Score != 1 || got[1].Score != 0 {
		t.Fatalf("expected clamped scores, got: %+v", got)
	}
}

func TestClient_SuggestCapsCount(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"suggestions":[
			{"content_id":"c1","score":0.9,"reasoning":"a"},
			{"content_id":"c2","score":0.8,"reasoning":"b"}
		]}`),
	})
	client := NewClient(mock, DefaultConfig(), nil)

	got, err := client.Suggest(context.Background(), SuggestionContext{
		UserID:         "alice",
		Candidates:     testCandidates(),
		MaxSuggestions: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
}

func TestClient_SuggestNoCandidates(t *testing.T) {
	mock := NewMockProvider()
	client := NewClient(mock, DefaultConfig(), nil)

	got, err := client.Suggest(context.Background(), SuggestionContext{UserID: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got: %+v", got)
	}
	if mock.CallCount() != 0 {
		t.Fatal("expected no provider call without candidates")
	}
}

func TestClient_SuggestUnavailable(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrUnavailable{Err: errors.New("down")}})
	client := NewClient(mock, DefaultConfig(), nil)

	_, err := client.Suggest(context.Background(), SuggestionContext{
		UserID:     "alice",
		Candidates: testCandidates(),
	})
	var unavail *ErrUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrUnavailable, got: %v", err)
	}
}

func TestClient_SuggestSendsSchemaAndContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"suggestions":[]}`),
	})
	client := NewClient(mock, DefaultConfig(), nil)

	_, err := client.Suggest(context.Background(), SuggestionContext{
		UserID:           "alice",
		RecentContentIDs: []string{"c9"},
		Candidates:       testCandidates(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.Calls))
	}
	req := mock.Calls[0]
	if req.Schema == nil || req.Schema.Name != "content-suggestions" {
		t.Fatalf("expected content-suggestions schema, got: %+v", req.Schema)
	}
	if len(req.Messages) != 1 {
		t.Fatalf("expected single-turn request, got %d messages", len(req.Messages))
	}
}
