package recommend

import (
	"strings"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/skillgraph"
)

// Matcher scores how relevant a content item is to a skill, in [0, 1].
// Pluggable so an embedding-based matcher can replace the keyword
// heuristic without touching the scorers.
type Matcher interface {
	Relevance(node *skillgraph.SkillNode, item catalog.ContentItem) float64
}

// KeywordMatcher is the default matcher: subject must match exactly,
// then relevance is the fraction of the skill's tokens (from its ID,
// name, and keywords, with naive singular/plural normalization) found in
// the content's title, description, and subject. Below half overlap the
// match is discarded entirely.
type KeywordMatcher struct{}

func (KeywordMatcher) Relevance(node *skillgraph.SkillNode, item catalog.ContentItem) float64 {
	if !strings.EqualFold(node.SubjectArea, item.Subject) {
		return 0
	}

	skillTokens := skillTokenSet(node)
	if len(skillTokens) == 0 {
		return 0
	}

	contentTokens := tokenSet(item.Title + " " + item.Description + " " + item.Subject)

	matched := 0
	for tok := range skillTokens {
		if contentTokens[tok] {
			matched++
		}
	}

	overlap := float64(matched) / float64(len(skillTokens))
	if overlap < 0.5 {
		return 0
	}
	return overlap
}

func skillTokenSet(node *skillgraph.SkillNode) map[string]bool {
	parts := node.ID + " " + node.Name + " " + strings.Join(node.Keywords, " ")
	tokens := tokenSet(parts)
	// The subject itself is gated separately; it carries no extra signal
	// as a token.
	delete(tokens, normalizeToken(node.SubjectArea))
	return tokens
}

// tokenSet splits on non-alphanumeric runes and normalizes each token.
func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, f := range fields {
		if tok := normalizeToken(f); tok != "" {
			out[tok] = true
		}
	}
	return out
}

// normalizeToken applies naive singular/plural folding: "fractions" and
// "fraction" are the same token.
func normalizeToken(tok string) string {
	tok = strings.ToLower(tok)
	if len(tok) > 3 && strings.HasSuffix(tok, "es") {
		return tok[:len(tok)-2]
	}
	if len(tok) > 2 && strings.HasSuffix(tok, "s") {
		return tok[:len(tok)-1]
	}
	return tok
}
