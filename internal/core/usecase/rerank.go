package usecase

import (
	"strings"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

const (
	rerankPriorWeight    = 0.5
	rerankOverlapWeight  = 0.3
	rerankLengthWeight   = 0.1
	rerankPositionWeight = 0.1

	// Snippets shorter than this carry too little context; longer ones are
	// unlikely to be a focused answer.
	rerankMinWords = 20
	rerankMaxWords = 500

	// Structural-position weighting is reserved for a later pass over
	// section metadata; until then the signal is neutral.
	neutralPositionScore = 1.0
)

// rerankCandidates blends a second, independent composite on top of the
// first pass: the prior composite score (fused if present, else semantic,
// else 0), a term overlap recomputed directly against the full content so
// the stage is self-contained, a length heuristic, and a position
// placeholder. Earlier score signals are preserved on the output copies.
func rerankCandidates(query string, candidates []domain.ScoredCandidate) []domain.ScoredCandidate {
	if len(candidates) == 0 {
		return nil
	}

	queryTokens := toTokenSet(query)

	out := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		overlap := tokenOverlap(queryTokens, toTokenSet(c.Content))
		score := rerankPriorWeight*priorComposite(c) +
			rerankOverlapWeight*overlap +
			rerankLengthWeight*lengthScore(c.Content) +
			rerankPositionWeight*neutralPositionScore
		out = append(out, c.WithScore(domain.SignalReranked, score))
	}

	sortBySignal(out, domain.SignalReranked)
	assignRanks(out)
	return out
}

func priorComposite(c domain.ScoredCandidate) float64 {
	if fused, ok := c.Scores[domain.SignalFused]; ok {
		return fused
	}
	return c.Score(domain.SignalSemantic)
}

func lengthScore(content string) float64 {
	words := len(strings.Fields(content))
	if words < rerankMinWords || words > rerankMaxWords {
		return 0.5
	}
	return 1.0
}
