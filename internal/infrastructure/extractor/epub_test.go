package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

func buildEPUB(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	mimetype, err := w.Create("mimetype")
	if err != nil {
		t.Fatalf("create mimetype entry: %v", err)
	}
	if _, err := mimetype.Write([]byte(epubMimeType)); err != nil {
		t.Fatalf("write mimetype entry: %v", err)
	}

	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func TestExtractEPUBStripsMarkup(t *testing.T) {
	raw := buildEPUB(t, map[string]string{
		"OEBPS/chapter1.xhtml": `<?xml version="1.0"?><html><head>
<style>p { margin: 0 }</style></head><body>
<h1>Chapter One</h1>
<p>The dragon slept &amp; dreamed.</p>
<script>console.log("ignore me")</script>
</body></html>`,
		"OEBPS/toc.ncx": "<navMap/>",
	})
	storage := &storageStub{files: map[string][]byte{"b1.epub": raw}}
	extractor := New(storage)

	text, err := extractor.Extract(context.Background(), &domain.Book{
		ID:          "b1",
		Filename:    "book.epub",
		MimeType:    epubMimeType,
		StoragePath: "b1.epub",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "Chapter One") || !strings.Contains(text, "The dragon slept & dreamed.") {
		t.Fatalf("Extract() = %q, want heading and paragraph text", text)
	}
	if strings.Contains(text, "ignore me") || strings.Contains(text, "margin") {
		t.Fatalf("Extract() = %q, script/style content leaked", text)
	}
	if strings.Contains(text, "<") {
		t.Fatalf("Extract() = %q, markup leaked", text)
	}
}

func TestExtractEPUBKeepsArchiveOrder(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, entry := range []struct{ name, content string }{
		{"mimetype", epubMimeType},
		{"ch1.xhtml", "<p>first part</p>"},
		{"ch2.xhtml", "<p>second part</p>"},
	} {
		f, err := w.Create(entry.name)
		if err != nil {
			t.Fatalf("create %s: %v", entry.name, err)
		}
		if _, err := f.Write([]byte(entry.content)); err != nil {
			t.Fatalf("write %s: %v", entry.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	text, err := extractEPUB(buf.Bytes())
	if err != nil {
		t.Fatalf("extractEPUB() error = %v", err)
	}
	if first, second := strings.Index(text, "first part"), strings.Index(text, "second part"); first < 0 || second < 0 || first > second {
		t.Fatalf("extractEPUB() = %q, want chapters in archive order", text)
	}
}

func TestExtractEPUBWithoutDocumentsFails(t *testing.T) {
	raw := buildEPUB(t, map[string]string{"OEBPS/toc.ncx": "<navMap/>"})
	if _, err := extractEPUB(raw); err == nil || !strings.Contains(err.Error(), "no text documents") {
		t.Fatalf("extractEPUB() error = %v, want no text documents", err)
	}
}

func TestIsEPUBDetection(t *testing.T) {
	tests := []struct {
		name string
		book domain.Book
		raw  []byte
		want bool
	}{
		{"mime type", domain.Book{MimeType: epubMimeType}, nil, true},
		{"filename", domain.Book{Filename: "Book.EPUB"}, nil, true},
		{"zip with mimetype entry", domain.Book{Filename: "book"}, append([]byte("PK\x03\x04........mimetype"), []byte(epubMimeType)...), true},
		{"plain zip", domain.Book{Filename: "book.zip"}, []byte("PK\x03\x04........other"), false},
		{"plain text", domain.Book{Filename: "book.txt"}, []byte("hello"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEPUB(&tt.book, tt.raw); got != tt.want {
				t.Fatalf("isEPUB() = %v, want %v", got, tt.want)
			}
		})
	}
}
