package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kirillkom/book-agent/internal/core/domain"
	"github.com/kirillkom/book-agent/internal/core/ports"
)

type ProcessBookUseCase struct {
	repo      ports.BookRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.VectorIndex
}

func NewProcessBookUseCase(
	repo ports.BookRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
) *ProcessBookUseCase {
	return &ProcessBookUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
	}
}

// ProcessByID runs the ingestion pipeline for one uploaded book: extract
// text, chunk, embed, index, and persist the ordered chunks as the content
// store the context extractor reads from.
func (uc *ProcessBookUseCase) ProcessByID(ctx context.Context, bookID string) error {
	if err := uc.repo.UpdateStatus(ctx, bookID, domain.BookProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, bookID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, bookID, domain.BookFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, bookID, domain.BookReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessBookUseCase) processPipeline(ctx context.Context, bookID string) error {
	book, err := uc.repo.GetByID(ctx, bookID)
	if err != nil {
		return fmt.Errorf("fetch book by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, book)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "chunk book", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	if err := uc.index.IndexChunks(ctx, book, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks in vector db: %w", err)
	}

	if err := uc.repo.ReplaceChunks(ctx, book.ID, buildChunkRows(book.ID, chunks)); err != nil {
		return fmt.Errorf("persist book chunks: %w", err)
	}
	return nil
}

func buildChunkRows(bookID string, chunks []string) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(chunks))
	for i, content := range chunks {
		out = append(out, domain.Chunk{
			ID:          bookID + ":" + strconv.Itoa(i),
			BookID:      bookID,
			Index:       i,
			TotalChunks: len(chunks),
			Content:     content,
		})
	}
	return out
}
