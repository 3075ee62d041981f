package ports

import (
	"context"
	"io"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

// BookIngestor is the inbound contract for book upload orchestration.
type BookIngestor interface {
	Upload(ctx context.Context, title, filename, mimeType string, body io.Reader) (*domain.Book, error)
}

// BookProcessor is the inbound contract for asynchronous book processing.
type BookProcessor interface {
	ProcessByID(ctx context.Context, bookID string) error
}

// BookReader is the inbound read model for book metadata and chunks.
type BookReader interface {
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	ListChunks(ctx context.Context, bookID string) ([]domain.Chunk, error)
}

// Retriever is the public surface of the ranked retrieval engine. A
// supplied bookID scopes results after ranking; topK < 1 is rejected with
// domain.ErrInvalidInput; an empty query yields empty results, not an
// error.
type Retriever interface {
	RetrieveSemantic(ctx context.Context, query, bookID string, topK int) ([]domain.ScoredCandidate, error)
	RetrieveKeyword(ctx context.Context, query, bookID string, topK int) ([]domain.ScoredCandidate, error)
	RetrieveHybrid(ctx context.Context, query, bookID string, topK int) ([]domain.ScoredCandidate, error)
	RetrieveWithReranking(ctx context.Context, query, bookID string, topK int) ([]domain.ScoredCandidate, error)
}

// QuestionAnswerer is the downstream answer-generation consumer of the
// retrieval engine.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question, bookID string, topK int) (*domain.Answer, error)
}
