package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *BookRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS book_chunks (
	id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	UNIQUE (book_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_books_status ON books(status);
CREATE INDEX IF NOT EXISTS idx_books_created_at ON books(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_book_chunks_book_id ON book_chunks(book_id, chunk_index);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO books (
	id, title, filename, mime_type, storage_path, status, chunk_count, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		book.ID, book.Title, book.Filename, book.MimeType, book.StoragePath,
		string(book.Status), book.ChunkCount, book.Error, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, filename, mime_type, storage_path, status, chunk_count, error_message, created_at, updated_at
FROM books
WHERE id = $1
`, id)

	var book domain.Book
	var status string

	err := row.Scan(
		&book.ID, &book.Title, &book.Filename, &book.MimeType, &book.StoragePath,
		&status, &book.ChunkCount, &book.Error, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	book.Status = domain.BookStatus(status)
	return &book, nil
}

func (r *BookRepository) UpdateStatus(ctx context.Context, id string, status domain.BookStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE books
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update book status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
	}
	return nil
}

// ReplaceChunks swaps the stored chunk set atomically and keeps the
// book's chunk_count in step with it.
func (r *BookRepository) ReplaceChunks(ctx context.Context, bookID string, chunks []domain.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_chunks WHERE book_id = $1`, bookID); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}

	for _, chunk := range chunks {
		_, err := tx.ExecContext(ctx, `
INSERT INTO book_chunks (id, book_id, chunk_index, content) VALUES ($1,$2,$3,$4)
`, chunk.ID, chunk.BookID, chunk.Index, chunk.Content)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
UPDATE books SET chunk_count = $2, updated_at = $3 WHERE id = $1
`, bookID, len(chunks), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update chunk count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *BookRepository) ListChunks(ctx context.Context, bookID string) ([]domain.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, book_id, chunk_index, content
FROM book_chunks
WHERE book_id = $1
ORDER BY chunk_index
`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.BookID, &chunk.Index, &chunk.Content); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks, nil
}
