package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

// sortBySignal orders candidates descending by the named signal. Ties fall
// back to ascending candidate id so repeated runs produce one ordering.
func sortBySignal(candidates []domain.ScoredCandidate, signal string) {
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i].Score(signal), candidates[j].Score(signal)
		if si != sj {
			return si > sj
		}
		return candidates[i].ID < candidates[j].ID
	})
}

// assignRanks rewrites ranks 1..n in list order. Ranks are recomputed by
// every stage, never accumulated.
func assignRanks(candidates []domain.ScoredCandidate) {
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
}

func truncateCandidates(candidates []domain.ScoredCandidate, limit int) []domain.ScoredCandidate {
	if limit <= 0 || len(candidates) <= limit {
		return candidates
	}
	return candidates[:limit]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// tokenOverlap is |query ∩ content| / |query|, guarded to 0 for an empty
// query token set.
func tokenOverlap(query, content map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := content[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func toTokenSet(s string) map[string]struct{} {
	tokens := splitAlphaNumLower(s)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
