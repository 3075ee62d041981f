package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

type bookRepoFake struct {
	created *domain.Book
	book    *domain.Book
	chunks  []domain.Chunk

	createErr  error
	statusErr  error
	replaceErr error

	statuses []domain.BookStatus
	lastErr  string
}

func (f *bookRepoFake) Create(_ context.Context, book *domain.Book) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = book
	return nil
}

func (f *bookRepoFake) GetByID(_ context.Context, id string) (*domain.Book, error) {
	if f.book == nil {
		return nil, domain.WrapError(domain.ErrBookNotFound, "get book", errors.New(id))
	}
	return f.book, nil
}

func (f *bookRepoFake) UpdateStatus(_ context.Context, _ string, status domain.BookStatus, errMessage string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statuses = append(f.statuses, status)
	f.lastErr = errMessage
	return nil
}

func (f *bookRepoFake) ReplaceChunks(_ context.Context, _ string, chunks []domain.Chunk) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.chunks = chunks
	return nil
}

func (f *bookRepoFake) ListChunks(context.Context, string) ([]domain.Chunk, error) {
	return f.chunks, nil
}

type storageFake struct {
	saved   map[string][]byte
	saveErr error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	raw, _ := io.ReadAll(data)
	f.saved[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.saved[key]
	if !ok {
		return nil, errors.New("missing object: " + key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishBookIngested(_ context.Context, bookID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, bookID)
	return nil
}

func (f *queueFake) SubscribeBookIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestUploadStoresPersistsAndPublishes(t *testing.T) {
	repo := &bookRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestBookUseCase(repo, storage, queue)

	book, err := uc.Upload(context.Background(), "", "dune.txt", "text/plain", strings.NewReader("spice"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if book.Status != domain.BookUploaded {
		t.Fatalf("expected status uploaded, got %s", book.Status)
	}
	if book.Title != "dune" {
		t.Fatalf("expected title derived from filename, got %q", book.Title)
	}
	if repo.created == nil || repo.created.ID != book.ID {
		t.Fatalf("book record not created")
	}
	if _, ok := storage.saved[book.StoragePath]; !ok {
		t.Fatalf("source file not stored at %s", book.StoragePath)
	}
	if len(queue.published) != 1 || queue.published[0] != book.ID {
		t.Fatalf("ingested event not published: %v", queue.published)
	}
}

func TestUploadRequiresFilename(t *testing.T) {
	uc := NewIngestBookUseCase(&bookRepoFake{}, &storageFake{}, &queueFake{})
	if _, err := uc.Upload(context.Background(), "t", "  ", "text/plain", strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUploadQueueFailureSurfaces(t *testing.T) {
	uc := NewIngestBookUseCase(&bookRepoFake{}, &storageFake{}, &queueFake{err: errors.New("nats down")})
	if _, err := uc.Upload(context.Background(), "t", "a.txt", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error")
	}
}
