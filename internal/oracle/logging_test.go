package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pathwise/pathwise/internal/store"
)

func TestLogging_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{}`),
		Usage:   Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	})
	events := store.NewMemoryEventRepo()
	p := WithLogging(mock, events, nil)

	ctx := WithPurpose(context.Background(), "content-suggestions")
	if _, err := p.Generate(ctx, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events.OracleRequests) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.OracleRequests))
	}
	ev := events.OracleRequests[0]
	if !ev.Success || ev.Purpose != "content-suggestions" || ev.InputTokens != 10 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestLogging_RecordsFailure(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrUnavailable{Err: errors.New("down")}})
	events := store.NewMemoryEventRepo()
	p := WithLogging(mock, events, nil)

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}

	if len(events.OracleRequests) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.OracleRequests))
	}
	ev := events.OracleRequests[0]
	if ev.Success || ev.ErrorMessage == "" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
