package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

const epubMimeType = "application/epub+zip"

func isEPUB(book *domain.Book, raw []byte) bool {
	if book.MimeType == epubMimeType {
		return true
	}
	if strings.HasSuffix(strings.ToLower(book.Filename), ".epub") {
		return true
	}
	// An EPUB is a zip whose first entry is the literal mimetype file.
	return bytes.HasPrefix(raw, []byte("PK\x03\x04")) &&
		bytes.Contains(raw[:min(len(raw), 128)], []byte(epubMimeType))
}

// extractEPUB concatenates the text of every XHTML document in the
// archive, in archive order, which follows the spine in practice.
func extractEPUB(raw []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open epub archive: %w", err)
	}

	var sections []string
	for _, file := range archive.File {
		if !isEPUBDocument(file.Name) {
			continue
		}
		entry, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open epub entry %s: %w", file.Name, err)
		}
		content, err := io.ReadAll(entry)
		entry.Close()
		if err != nil {
			return "", fmt.Errorf("read epub entry %s: %w", file.Name, err)
		}
		if text := stripMarkup(string(content)); text != "" {
			sections = append(sections, text)
		}
	}

	if len(sections) == 0 {
		return "", fmt.Errorf("epub archive contains no text documents")
	}
	return normalizeText(strings.Join(sections, "\n\n")), nil
}

func isEPUBDocument(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xhtml") ||
		strings.HasSuffix(lower, ".html") ||
		strings.HasSuffix(lower, ".htm")
}

// stripMarkup drops tags and unescapes entities. Script and style
// bodies are skipped entirely; block-level closing tags become line
// breaks so paragraphs stay separated.
func stripMarkup(doc string) string {
	var out strings.Builder
	skipUntil := ""

	for i := 0; i < len(doc); {
		if doc[i] != '<' {
			if skipUntil == "" {
				out.WriteByte(doc[i])
			}
			i++
			continue
		}

		end := strings.IndexByte(doc[i:], '>')
		if end < 0 {
			break
		}
		tag := strings.ToLower(strings.TrimSpace(doc[i+1 : i+end]))
		i += end + 1

		switch {
		case skipUntil != "":
			if strings.HasPrefix(tag, "/"+skipUntil) {
				skipUntil = ""
			}
		case strings.HasPrefix(tag, "script"):
			skipUntil = "script"
		case strings.HasPrefix(tag, "style"):
			skipUntil = "style"
		case strings.HasPrefix(tag, "/p") || strings.HasPrefix(tag, "/h") ||
			strings.HasPrefix(tag, "/div") || strings.HasPrefix(tag, "/li") ||
			strings.HasPrefix(tag, "br"):
			out.WriteByte('\n')
		}
	}

	return strings.TrimSpace(collapseBlankLines(html.UnescapeString(out.String())))
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}
