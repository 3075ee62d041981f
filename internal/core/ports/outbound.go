package ports

import (
	"context"
	"io"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

// Embedder turns text into fixed-length vectors. An embedding failure must
// surface as an error or an empty vector, never a panic.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the nearest-neighbor index. Search returns at most n hits
// ordered by ascending distance; the distance is a non-negative
// dissimilarity measure.
type VectorIndex interface {
	IndexChunks(ctx context.Context, book *domain.Book, chunks []string, vectors [][]float32) error
	Search(ctx context.Context, query string, n int) ([]domain.IndexHit, error)
}

// BookRepository is the content store: catalog rows plus the ordered chunk
// text the index echoes back in its payloads.
type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookStatus, errMessage string) error
	ReplaceChunks(ctx context.Context, bookID string, chunks []domain.Chunk) error
	ListChunks(ctx context.Context, bookID string) ([]domain.Chunk, error)
}

// ObjectStorage stores the uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue carries book-ingested events from the api to the worker.
type MessageQueue interface {
	PublishBookIngested(ctx context.Context, bookID string) error
	SubscribeBookIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored book file.
type TextExtractor interface {
	Extract(ctx context.Context, book *domain.Book) (string, error)
}

// Chunker splits extracted text into fixed-size overlapping windows.
type Chunker interface {
	Split(text string) []string
}

// AnswerGenerator creates the final user-facing answer from retrieved
// candidates.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, candidates []domain.ScoredCandidate) (string, error)
}
