package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/catalog"
)

// SuggestionContext is the learner state sent to the oracle alongside
// the candidate content list.
type SuggestionContext struct {
	UserID string
	// Subjects the learner is working in, with their focus skills.
	Subjects []SubjectSummary
	// RecentContentIDs lists recently consumed content, newest first.
	RecentContentIDs []string
	// Candidates is the content the oracle may choose from. Suggestions
	// referencing anything else are dropped.
	Candidates []catalog.ContentItem
	// MaxSuggestions caps the response size. Zero means 5.
	MaxSuggestions int
}

// SubjectSummary is one subject area's state for the prompt.
type SubjectSummary struct {
	Subject        string
	OverallMastery float64
	FocusSkills    []string
	GapSkills      []string
}

// Suggestion is one oracle recommendation, already validated against the
// candidate set with its score clamped to [0, 1].
type Suggestion struct {
	ContentID string  `json:"content_id"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// Client turns learner context into oracle suggestions. It owns the
// prompt, the response schema, and the sanitization of what comes back.
type Client struct {
	provider Provider
	timeout  func() context.Context
	cfg      Config
	logger   *zap.Logger
}

// NewClient creates a suggestion client over a provider. logger may be nil.
func NewClient(provider Provider, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{provider: provider, cfg: cfg, logger: logger}
}

const suggestSystemPrompt = `You are a learning content advisor. Given a learner's
mastery state and a list of candidate content items, pick the items that best
advance their learning right now. Prefer content that closes skill gaps, matches
the learner's level, and avoids what they have just consumed. Score each pick in
[0, 1] by how strongly you recommend it, and give a one-sentence reason.`

var suggestionSchema = &Schema{
	Name:        "content-suggestions",
	Description: "Ranked content suggestions for a learner",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suggestions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"content_id": map[string]any{"type": "string"},
						"score":      map[string]any{"type": "number"},
						"reasoning":  map[string]any{"type": "string"},
					},
					"required": []any{"content_id", "score", "reasoning"},
				},
			},
		},
		"required": []any{"suggestions"},
	},
}

// Suggest asks the oracle for content suggestions. The returned slice is
// sanitized: unknown content IDs are dropped, scores are clamped to
// [0, 1], and the list is capped at the requested size. Transport and
// schema failures surface as the package's error types; callers treat
// any error as "no external signal".
func (c *Client) Suggest(ctx context.Context, sctx SuggestionContext) ([]Suggestion, error) {
	if len(sctx.Candidates) == 0 {
		return nil, nil
	}
	maxN := sctx.MaxSuggestions
	if maxN <= 0 {
		maxN = 5
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	ctx = WithPurpose(ctx, "content-suggestions")

	resp, err := c.provider.Generate(ctx, Request{
		System: suggestSystemPrompt,
		Messages: []Message{
			{Role: RoleUser, Content: buildSuggestPrompt(sctx, maxN)},
		},
		Schema:      suggestionSchema,
		MaxTokens:   1024,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(resp.Content, &parsed); err != nil {
		return nil, &ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	known := make(map[string]bool, len(sctx.Candidates))
	for _, item := range sctx.Candidates {
		known[item.ID] = true
	}

	out := make([]Suggestion, 0, len(parsed.Suggestions))
	for _, s := range parsed.Suggestions {
		if !known[s.ContentID] {
			c.logger.Debug("dropping oracle suggestion outside candidate set",
				zap.String("content_id", s.ContentID))
			continue
		}
		if s.Score < 0 {
			s.Score = 0
		}
		if s.Score > 1 {
			s.Score = 1
		}
		out = append(out, s)
		if len(out) == maxN {
			break
		}
	}
	return out, nil
}

// buildSuggestPrompt renders the learner context and candidate list.
func buildSuggestPrompt(sctx SuggestionContext, maxN int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pick up to %d content items for this learner.\n\n", maxN)

	b.WriteString("Learner state:\n")
	for _, s := range sctx.Subjects {
		fmt.Fprintf(&b, "- %s: overall mastery %.2f", s.Subject, s.OverallMastery)
		if len(s.FocusSkills) > 0 {
			fmt.Fprintf(&b, ", focus: %s", strings.Join(s.FocusSkills, ", "))
		}
		if len(s.GapSkills) > 0 {
			fmt.Fprintf(&b, ", gaps: %s", strings.Join(s.GapSkills, ", "))
		}
		b.WriteString("\n")
	}

	if len(sctx.RecentContentIDs) > 0 {
		fmt.Fprintf(&b, "\nRecently consumed (avoid repeats): %s\n",
			strings.Join(sctx.RecentContentIDs, ", "))
	}

	b.WriteString("\nCandidates:\n")
	for _, item := range sctx.Candidates {
		fmt.Fprintf(&b, "- %s: %q (%s, %s, difficulty %d, ~%d min)\n",
			item.ID, item.Title, item.ContentType, item.Subject,
			item.Difficulty, item.EstimatedMinutes)
	}

	return b.String()
}
