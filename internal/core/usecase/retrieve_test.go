package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

func newServiceWithPool(hits []domain.IndexHit) (*RetrievalService, *indexFake) {
	index := &indexFake{hits: hits}
	svc := NewRetrievalService(&embedderFake{vector: []float32{0.1}}, index, RetrievalConfig{})
	return svc, index
}

func TestRetrieveRejectsInvalidTopK(t *testing.T) {
	svc, _ := newServiceWithPool(nil)
	for _, topK := range []int{0, -3} {
		_, err := svc.RetrieveSemantic(context.Background(), "query", "", topK)
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("top_k=%d: expected ErrInvalidInput, got %v", topK, err)
		}
	}
	if _, err := svc.RetrieveWithReranking(context.Background(), "query", "", 0); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput from reranking path, got %v", err)
	}
}

func TestRetrieveEmptyQueryIsEmptyNotError(t *testing.T) {
	svc, index := newServiceWithPool([]domain.IndexHit{hit("c1", "chunk", "b1", 0.1)})

	out, err := svc.RetrieveHybrid(context.Background(), "   ", "", 5)
	if err != nil {
		t.Fatalf("empty query must not error, got %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
	if index.lastN.Load() != 0 {
		t.Fatalf("expected no index call for empty query")
	}
}

func TestRetrieveDispatchesByStrategyTag(t *testing.T) {
	svc, _ := newServiceWithPool([]domain.IndexHit{
		hit("c1", "the dragon flew over the castle", "b1", 0.1),
	})

	for _, strategy := range []domain.Strategy{domain.StrategySemantic, domain.StrategyKeyword, domain.StrategyHybrid} {
		out, err := svc.Retrieve(context.Background(), strategy, "dragon", "", 5)
		if err != nil {
			t.Fatalf("strategy %s: unexpected error %v", strategy, err)
		}
		if len(out) != 1 {
			t.Fatalf("strategy %s: expected 1 candidate, got %d", strategy, len(out))
		}
	}

	if _, err := svc.Retrieve(context.Background(), domain.Strategy("bm42"), "dragon", "", 5); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown strategy, got %v", err)
	}
}

func TestBookFilterPreservesOrderAndMayStarveTopK(t *testing.T) {
	// Five unscoped hits; only one belongs to book B.
	svc, _ := newServiceWithPool([]domain.IndexHit{
		hit("c1", "chunk one", "A", 0.10),
		hit("c2", "chunk two", "A", 0.20),
		hit("c3", "chunk three", "B", 0.30),
		hit("c4", "chunk four", "A", 0.40),
		hit("c5", "chunk five", "A", 0.50),
	})

	out, err := svc.RetrieveSemantic(context.Background(), "chunk", "B", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly 1 scoped result, got %d", len(out))
	}
	if out[0].ID != "c3" || out[0].Rank != 1 {
		t.Fatalf("expected c3 with rank 1, got %s rank=%d", out[0].ID, out[0].Rank)
	}
}

func TestBookFilterKeepsRelativeOrder(t *testing.T) {
	svc, _ := newServiceWithPool([]domain.IndexHit{
		hit("c1", "first", "B", 0.10),
		hit("c2", "other", "A", 0.20),
		hit("c3", "second", "B", 0.30),
		hit("c4", "third", "B", 0.40),
	})

	out, err := svc.RetrieveSemantic(context.Background(), "query", "B", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"c1", "c3", "c4"}
	if len(out) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(out))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("filter reordered results: expected %s at %d, got %s", id, i, out[i].ID)
		}
		if out[i].Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, out[i].Rank)
		}
	}
}

func TestRetrieveWithRerankingTruncatesToTopK(t *testing.T) {
	hits := make([]domain.IndexHit, 0, 8)
	for i := 0; i < 8; i++ {
		hits = append(hits, hit(
			string(rune('a'+i)),
			"dragon chapter text",
			"b1",
			float64(i)*0.1,
		))
	}
	svc, index := newServiceWithPool(hits)

	out, err := svc.RetrieveWithReranking(context.Background(), "dragon", "", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 results after truncation, got %d", len(out))
	}
	for _, c := range out {
		if _, ok := c.Scores[domain.SignalReranked]; !ok {
			t.Fatalf("candidate %s missing reranked signal", c.ID)
		}
	}
	// Reranking requests 2*topK from hybrid, which doubles again for its
	// recall pool.
	if index.lastN.Load() != 12 {
		t.Fatalf("expected recall pool of 12, got %d", index.lastN.Load())
	}
}

func TestRetrieveWithRerankingUpstreamFailureIsEmpty(t *testing.T) {
	index := &indexFake{err: context.DeadlineExceeded}
	svc := NewRetrievalService(&embedderFake{vector: []float32{0.1}}, index, RetrievalConfig{})

	out, err := svc.RetrieveWithReranking(context.Background(), "dragon", "", 5)
	if err != nil {
		t.Fatalf("upstream failure must degrade to empty, got error %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
}

func TestRetrievalConfigNormalization(t *testing.T) {
	cases := []struct {
		name         string
		in           RetrievalConfig
		wantSemantic float64
		wantKeyword  float64
	}{
		{"zero value falls back to defaults", RetrievalConfig{}, DefaultSemanticWeight, DefaultKeywordWeight},
		{"negative weight falls back to defaults", RetrievalConfig{SemanticWeight: -1, KeywordWeight: 2}, DefaultSemanticWeight, DefaultKeywordWeight},
		{"weights normalized to sum 1", RetrievalConfig{SemanticWeight: 7, KeywordWeight: 3}, 0.7, 0.3},
		{"already normalized kept", RetrievalConfig{SemanticWeight: 0.6, KeywordWeight: 0.4}, 0.6, 0.4},
	}
	for _, tc := range cases {
		got := tc.in.normalize()
		if got.SemanticWeight != tc.wantSemantic || got.KeywordWeight != tc.wantKeyword {
			t.Fatalf("%s: got %+v", tc.name, got)
		}
	}
}
