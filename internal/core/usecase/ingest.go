package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/book-agent/internal/core/domain"
	"github.com/kirillkom/book-agent/internal/core/ports"
)

type IngestBookUseCase struct {
	repo    ports.BookRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestBookUseCase(
	repo ports.BookRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestBookUseCase {
	return &IngestBookUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Upload persists the source file and the catalog row, then publishes the
// book-ingested event for the worker to pick up. Processing itself is
// asynchronous; the returned book is in the uploaded state.
func (uc *IngestBookUseCase) Upload(ctx context.Context, title, filename, mimeType string, body io.Reader) (*domain.Book, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload book", fmt.Errorf("filename is required"))
	}
	if title = strings.TrimSpace(title); title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	now := time.Now().UTC()
	book := &domain.Book{
		ID:        uuid.NewString(),
		Title:     title,
		Filename:  filename,
		MimeType:  mimeType,
		Status:    domain.BookUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	book.StoragePath = book.ID + filepath.Ext(filename)

	if err := uc.storage.Save(ctx, book.StoragePath, body); err != nil {
		return nil, fmt.Errorf("store source file: %w", err)
	}
	if err := uc.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book record: %w", err)
	}
	if err := uc.queue.PublishBookIngested(ctx, book.ID); err != nil {
		return nil, fmt.Errorf("publish ingested event: %w", err)
	}
	return book, nil
}
