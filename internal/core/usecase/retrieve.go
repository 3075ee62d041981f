package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/book-agent/internal/core/domain"
	"github.com/kirillkom/book-agent/internal/core/ports"
)

// RetrievalConfig carries the fusion weights, fixed at construction and
// never mutated afterward. Weights must be non-negative; when they do not
// sum to 1 the fused score is no longer bounded by 1, so the weights are
// normalized at construction to keep the documented [0,1] bounding.
type RetrievalConfig struct {
	SemanticWeight float64
	KeywordWeight  float64
}

func (c RetrievalConfig) normalize() RetrievalConfig {
	if c.SemanticWeight < 0 || c.KeywordWeight < 0 || c.SemanticWeight+c.KeywordWeight == 0 {
		return RetrievalConfig{
			SemanticWeight: DefaultSemanticWeight,
			KeywordWeight:  DefaultKeywordWeight,
		}
	}
	sum := c.SemanticWeight + c.KeywordWeight
	return RetrievalConfig{
		SemanticWeight: c.SemanticWeight / sum,
		KeywordWeight:  c.KeywordWeight / sum,
	}
}

// RetrievalService is the public façade of the ranked retrieval engine:
// strategy selection, book-scoped filtering, and the reranking pass. It
// holds no mutable state, so concurrent requests need no locking.
type RetrievalService struct {
	semantic retrievalStrategy
	keyword  retrievalStrategy
	hybrid   retrievalStrategy
}

func NewRetrievalService(embedder ports.Embedder, index ports.VectorIndex, cfg RetrievalConfig) *RetrievalService {
	cfg = cfg.normalize()
	semantic := newSemanticStrategy(embedder, index)
	keyword := newKeywordStrategy(index)
	return &RetrievalService{
		semantic: semantic,
		keyword:  keyword,
		hybrid:   newHybridStrategy(semantic, keyword, cfg.SemanticWeight, cfg.KeywordWeight),
	}
}

func (s *RetrievalService) RetrieveSemantic(ctx context.Context, query, bookID string, topK int) ([]domain.ScoredCandidate, error) {
	return s.retrieve(ctx, s.semantic, query, bookID, topK)
}

func (s *RetrievalService) RetrieveKeyword(ctx context.Context, query, bookID string, topK int) ([]domain.ScoredCandidate, error) {
	return s.retrieve(ctx, s.keyword, query, bookID, topK)
}

func (s *RetrievalService) RetrieveHybrid(ctx context.Context, query, bookID string, topK int) ([]domain.ScoredCandidate, error) {
	return s.retrieve(ctx, s.hybrid, query, bookID, topK)
}

// Retrieve dispatches over the closed strategy set.
func (s *RetrievalService) Retrieve(ctx context.Context, strategy domain.Strategy, query, bookID string, topK int) ([]domain.ScoredCandidate, error) {
	switch strategy {
	case domain.StrategySemantic:
		return s.RetrieveSemantic(ctx, query, bookID, topK)
	case domain.StrategyKeyword:
		return s.RetrieveKeyword(ctx, query, bookID, topK)
	case domain.StrategyHybrid:
		return s.RetrieveHybrid(ctx, query, bookID, topK)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("unknown strategy %q", strategy))
	}
}

// RetrieveWithReranking fetches a double-size hybrid pool, scopes it to the
// book, applies the reranking pass, and truncates to topK.
func (s *RetrievalService) RetrieveWithReranking(ctx context.Context, query, bookID string, topK int) ([]domain.ScoredCandidate, error) {
	if err := validateTopK(topK); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	pool := s.hybrid.Retrieve(ctx, query, topK*2)
	pool = filterByBook(pool, bookID)
	reranked := rerankCandidates(query, pool)
	return truncateCandidates(reranked, topK), nil
}

func (s *RetrievalService) retrieve(ctx context.Context, strategy retrievalStrategy, query, bookID string, topK int) ([]domain.ScoredCandidate, error) {
	if err := validateTopK(topK); err != nil {
		return nil, err
	}
	// An empty query carries no signal anywhere; it produces an empty
	// result rather than an error.
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	out := strategy.Retrieve(ctx, query, topK)
	return filterByBook(out, bookID), nil
}

func validateTopK(topK int) error {
	if topK < 1 {
		return domain.WrapError(domain.ErrInvalidInput, "retrieve", errors.New("top_k must be at least 1"))
	}
	return nil
}

// filterByBook drops candidates from other books while preserving the
// relative order of the survivors. Filtering runs after ranking, so a
// book-scoped request may legitimately return fewer than topK results.
func filterByBook(candidates []domain.ScoredCandidate, bookID string) []domain.ScoredCandidate {
	if bookID == "" {
		return candidates
	}
	out := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.BookID() == bookID {
			out = append(out, c)
		}
	}
	assignRanks(out)
	return out
}
