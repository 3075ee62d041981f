package usecase

import (
	"context"
	"sync"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

const (
	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3

	// Each sub-strategy is asked for this multiple of topK before fusion:
	// the two strategies surface only partially overlapping candidate
	// sets, so over-fetching improves recall of the fused list.
	hybridRecallMultiplier = 2
)

// hybridStrategy runs the semantic and keyword strategies and fuses their
// scores by weighted sum over the union of candidate identities.
type hybridStrategy struct {
	semantic retrievalStrategy
	keyword  retrievalStrategy

	semanticWeight float64
	keywordWeight  float64
}

func newHybridStrategy(semantic, keyword retrievalStrategy, semanticWeight, keywordWeight float64) *hybridStrategy {
	if semanticWeight < 0 || keywordWeight < 0 {
		semanticWeight = DefaultSemanticWeight
		keywordWeight = DefaultKeywordWeight
	}
	return &hybridStrategy{
		semantic:       semantic,
		keyword:        keyword,
		semanticWeight: semanticWeight,
		keywordWeight:  keywordWeight,
	}
}

func (s *hybridStrategy) Retrieve(ctx context.Context, query string, topK int) []domain.ScoredCandidate {
	poolSize := topK * hybridRecallMultiplier

	// The sub-retrievals are independent and side-effect free; fusion is
	// commutative over the union, so their completion order is irrelevant.
	var wg sync.WaitGroup
	var semanticOut, keywordOut []domain.ScoredCandidate
	wg.Add(2)
	go func() {
		defer wg.Done()
		semanticOut = s.semantic.Retrieve(ctx, query, poolSize)
	}()
	go func() {
		defer wg.Done()
		keywordOut = s.keyword.Retrieve(ctx, query, poolSize)
	}()
	wg.Wait()

	fused := fuseWeighted(semanticOut, keywordOut, s.semanticWeight, s.keywordWeight)
	return truncateCandidates(fused, topK)
}

// fuseWeighted unions the two candidate lists by identity and scores each
// identity as semanticWeight*semantic + keywordWeight*keyword, treating a
// missing signal as 0. A candidate found by only one strategy is kept, not
// excluded. Exactly one fused candidate is produced per distinct id.
func fuseWeighted(semantic, keyword []domain.ScoredCandidate, semanticWeight, keywordWeight float64) []domain.ScoredCandidate {
	merged := make(map[string]domain.ScoredCandidate, len(semantic)+len(keyword))

	for _, c := range semantic {
		merged[c.ID] = c.Clone()
	}
	for _, c := range keyword {
		existing, ok := merged[c.ID]
		if !ok {
			merged[c.ID] = c.Clone()
			continue
		}
		// Keep the semantic copy as the base and fold in the keyword
		// signal; both carry the same content and metadata.
		existing.Scores[domain.SignalKeyword] = c.Score(domain.SignalKeyword)
		merged[c.ID] = existing
	}

	out := make([]domain.ScoredCandidate, 0, len(merged))
	for _, c := range merged {
		fused := semanticWeight*c.Score(domain.SignalSemantic) + keywordWeight*c.Score(domain.SignalKeyword)
		c.Scores[domain.SignalFused] = fused
		out = append(out, c)
	}

	sortBySignal(out, domain.SignalFused)
	assignRanks(out)
	return out
}
