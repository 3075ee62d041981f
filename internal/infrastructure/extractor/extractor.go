package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/book-agent/internal/core/domain"
	"github.com/kirillkom/book-agent/internal/core/ports"
)

// Extractor pulls plain text out of a stored book file. PDF books go
// through the pdf parser, EPUB books through the zip/XHTML reader,
// everything else must already be UTF-8 text.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, book *domain.Book) (string, error) {
	reader, err := e.storage.Open(ctx, book.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source book: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source book: %w", err)
	}

	if isPDF(book, raw) {
		return extractPDF(raw)
	}
	if isEPUB(book, raw) {
		return extractEPUB(raw)
	}

	if !utf8.Valid(raw) {
		return "", fmt.Errorf("unsupported binary format: %s", book.Filename)
	}
	return normalizeText(string(raw)), nil
}

func extractPDF(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return normalizeText(buf.String()), nil
}

func isPDF(book *domain.Book, raw []byte) bool {
	if book.MimeType == "application/pdf" {
		return true
	}
	if strings.HasSuffix(strings.ToLower(book.Filename), ".pdf") {
		return true
	}
	return bytes.HasPrefix(raw, []byte("%PDF-"))
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}
