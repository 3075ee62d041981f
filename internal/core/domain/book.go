package domain

import "time"

type BookStatus string

const (
	BookUploaded   BookStatus = "uploaded"
	BookProcessing BookStatus = "processing"
	BookReady      BookStatus = "ready"
	BookFailed     BookStatus = "failed"
)

type Book struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Filename    string     `json:"filename"`
	MimeType    string     `json:"mime_type"`
	StoragePath string     `json:"storage_path"`
	Status      BookStatus `json:"status"`
	ChunkCount  int        `json:"chunk_count"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Chunk is one indexed fragment of a book, in reading order.
type Chunk struct {
	ID          string `json:"id"`
	BookID      string `json:"book_id"`
	Index       int    `json:"index"`
	TotalChunks int    `json:"total_chunks"`
	Content     string `json:"content"`
}
