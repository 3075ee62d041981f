package chunking

import (
	"strings"
	"testing"
)

func TestSplitOverlapsAdjacentChunks(t *testing.T) {
	splitter := NewSplitter(10, 4)
	text := strings.Repeat("abcdefghij", 3)

	chunks := splitter.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want at least 2", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-4:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Fatalf("chunk %d does not start with previous tail %q: %q", i, tail, chunks[i])
		}
	}
}

func TestSplitEmptyTextYieldsNothing(t *testing.T) {
	splitter := NewSplitter(1000, 100)
	if chunks := splitter.Split(""); chunks != nil {
		t.Fatalf("Split(\"\") = %v, want nil", chunks)
	}
	if chunks := splitter.Split("   \n\t "); len(chunks) != 0 {
		t.Fatalf("Split(whitespace) = %v, want none", chunks)
	}
}

func TestSplitKeepsMultibyteRunesIntact(t *testing.T) {
	splitter := NewSplitter(5, 1)
	chunks := splitter.Split("дракон спит в пещере")
	for i, chunk := range chunks {
		if strings.ContainsRune(chunk, '�') {
			t.Fatalf("chunk %d contains a broken rune: %q", i, chunk)
		}
	}
}

func TestNewSplitterNormalizesBadArguments(t *testing.T) {
	splitter := NewSplitter(0, -5)
	if splitter.ChunkSize != 1000 || splitter.Overlap != 0 {
		t.Fatalf("NewSplitter(0,-5) = %+v, want size 1000 overlap 0", splitter)
	}

	splitter = NewSplitter(100, 100)
	if splitter.Overlap != 10 {
		t.Fatalf("NewSplitter(100,100) overlap = %d, want 10", splitter.Overlap)
	}
}
