package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/book-agent/internal/core/domain"
	"github.com/kirillkom/book-agent/internal/core/ports"
)

const defaultContextWindowSize = 2

// ContextFragment is one chunk of the window handed to the
// explanation/summarization consumer, scored for relevance to the target.
type ContextFragment struct {
	Content        string  `json:"content"`
	ChunkIndex     int     `json:"chunk_index"`
	RelevanceScore float64 `json:"relevance_score"`
	Target         bool    `json:"target"`
}

// ContextExtractor returns the chunk window around a target passage so a
// downstream model sees the passage in its surrounding text. This is
// heuristic windowing over the stored reading order, not retrieval.
type ContextExtractor struct {
	repo       ports.BookRepository
	windowSize int
}

func NewContextExtractor(repo ports.BookRepository, windowSize int) *ContextExtractor {
	if windowSize <= 0 {
		windowSize = defaultContextWindowSize
	}
	return &ContextExtractor{
		repo:       repo,
		windowSize: windowSize,
	}
}

// ExtractWindow locates the chunk containing (or most overlapping) the
// target text and returns windowSize chunks on either side, most relevant
// first.
func (e *ContextExtractor) ExtractWindow(ctx context.Context, bookID, target string) ([]ContextFragment, error) {
	if strings.TrimSpace(target) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract context", fmt.Errorf("target text is required"))
	}

	chunks, err := e.repo.ListChunks(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("list book chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	targetIdx := locateTargetChunk(target, chunks)

	start := targetIdx - e.windowSize
	if start < 0 {
		start = 0
	}
	end := targetIdx + e.windowSize + 1
	if end > len(chunks) {
		end = len(chunks)
	}

	targetTokens := toTokenSet(target)
	out := make([]ContextFragment, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, ContextFragment{
			Content:        chunks[i].Content,
			ChunkIndex:     chunks[i].Index,
			RelevanceScore: tokenOverlap(targetTokens, toTokenSet(chunks[i].Content)),
			Target:         i == targetIdx,
		})
	}

	// Most relevant fragment first; equal scores keep reading order.
	sortFragments(out)
	return out, nil
}

// locateTargetChunk prefers exact containment and falls back to the chunk
// with the highest token overlap.
func locateTargetChunk(target string, chunks []domain.Chunk) int {
	for i, chunk := range chunks {
		if strings.Contains(chunk.Content, target) {
			return i
		}
	}

	targetTokens := toTokenSet(target)
	best, bestScore := 0, -1.0
	for i, chunk := range chunks {
		score := tokenOverlap(targetTokens, toTokenSet(chunk.Content))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func sortFragments(fragments []ContextFragment) {
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].RelevanceScore > fragments[j].RelevanceScore
	})
}
