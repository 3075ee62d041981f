package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/book-agent/internal/core/domain"
	"github.com/kirillkom/book-agent/internal/core/ports"
)

// retrievalStrategy is the contract shared by the closed set of strategies
// {semantic, keyword, hybrid}. A strategy never fails for a well-formed
// query: upstream unavailability degrades to an empty result so that a
// multi-strategy caller can still answer from whatever survived. Output is
// at most topK candidates, sorted descending by the strategy's own primary
// signal, with ranks 1..n.
type retrievalStrategy interface {
	Retrieve(ctx context.Context, query string, topK int) []domain.ScoredCandidate
}

type semanticStrategy struct {
	embedder ports.Embedder
	index    ports.VectorIndex
}

func newSemanticStrategy(embedder ports.Embedder, index ports.VectorIndex) *semanticStrategy {
	return &semanticStrategy{embedder: embedder, index: index}
}

func (s *semanticStrategy) Retrieve(ctx context.Context, query string, topK int) []domain.ScoredCandidate {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil || len(vector) == 0 {
		// Semantic search cannot proceed without a query vector; the
		// keyword strategy remains available to hybrid callers.
		slog.Warn("semantic_retrieval_degraded", "reason", "query embedding unavailable", "error", err)
		return nil
	}

	hits, err := s.index.Search(ctx, query, topK)
	if err != nil {
		slog.Warn("semantic_retrieval_degraded", "reason", "vector index search failed", "error", err)
		return nil
	}

	out := make([]domain.ScoredCandidate, 0, len(hits))
	for _, hit := range hits {
		// The index contract promises distance in [0,1] but is not
		// trusted blindly: clamp so the similarity stays bounded even
		// against an index returning raw metric distance.
		similarity := clamp01(1.0 - hit.Distance)
		out = append(out, candidateFromHit(hit, domain.SignalSemantic, similarity))
	}

	sortBySignal(out, domain.SignalSemantic)
	assignRanks(out)
	return out
}

// keywordStrategy approximates lexical relevance by token overlap over the
// recall pool the vector index supplies for the query. It is deliberately
// not BM25: true BM25 (k1=1.2, b=0.75) needs corpus-wide term frequency
// and document length statistics that this system does not maintain.
type keywordStrategy struct {
	index ports.VectorIndex
}

func newKeywordStrategy(index ports.VectorIndex) *keywordStrategy {
	return &keywordStrategy{index: index}
}

func (s *keywordStrategy) Retrieve(ctx context.Context, query string, topK int) []domain.ScoredCandidate {
	queryTokens := toTokenSet(query)
	if len(queryTokens) == 0 {
		return nil
	}

	hits, err := s.index.Search(ctx, query, topK)
	if err != nil {
		slog.Warn("keyword_retrieval_degraded", "reason", "recall pool unavailable", "error", err)
		return nil
	}

	out := make([]domain.ScoredCandidate, 0, len(hits))
	for _, hit := range hits {
		overlap := tokenOverlap(queryTokens, toTokenSet(hit.Content))
		out = append(out, candidateFromHit(hit, domain.SignalKeyword, overlap))
	}

	sortBySignal(out, domain.SignalKeyword)
	assignRanks(out)
	return out
}

func candidateFromHit(hit domain.IndexHit, signal string, score float64) domain.ScoredCandidate {
	metadata := make(map[string]string, len(hit.Metadata))
	for k, v := range hit.Metadata {
		metadata[k] = v
	}
	return domain.ScoredCandidate{
		ID:       hit.ID,
		Content:  hit.Content,
		Metadata: metadata,
		Scores:   map[string]float64{signal: score},
	}
}
