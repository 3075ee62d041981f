package domain

import "fmt"

// Score signal names attached to a candidate. Later stages add signals
// without removing the earlier ones, so every stage's output stays
// inspectable on the final result.
const (
	SignalSemantic = "semantic"
	SignalKeyword  = "keyword"
	SignalFused    = "fused"
	SignalReranked = "reranked"
)

// MetadataBookID is the only metadata key the ranking logic interprets.
const MetadataBookID = "book_id"

// Strategy identifies one of the closed set of retrieval strategies.
type Strategy string

const (
	StrategySemantic Strategy = "semantic"
	StrategyKeyword  Strategy = "keyword"
	StrategyHybrid   Strategy = "hybrid"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySemantic, StrategyKeyword, StrategyHybrid:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown retrieval strategy: %q", s)
	}
}

// ScoredCandidate is a chunk being ranked for a query. Metadata is opaque
// to ranking except for MetadataBookID. Rank is 1-based and recomputed by
// whichever stage last sorted the list.
type ScoredCandidate struct {
	ID       string             `json:"id"`
	Content  string             `json:"content"`
	Metadata map[string]string  `json:"metadata,omitempty"`
	Scores   map[string]float64 `json:"scores"`
	Rank     int                `json:"rank"`
}

func (c ScoredCandidate) BookID() string {
	return c.Metadata[MetadataBookID]
}

// Score returns the named signal, or 0 when the signal is absent.
func (c ScoredCandidate) Score(signal string) float64 {
	return c.Scores[signal]
}

// Clone copies the candidate together with its maps, so a later stage can
// add signals without mutating the earlier stage's result.
func (c ScoredCandidate) Clone() ScoredCandidate {
	out := c
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	out.Scores = make(map[string]float64, len(c.Scores)+1)
	for k, v := range c.Scores {
		out.Scores[k] = v
	}
	return out
}

// WithScore returns a copy of the candidate carrying one additional signal.
func (c ScoredCandidate) WithScore(signal string, value float64) ScoredCandidate {
	out := c.Clone()
	out.Scores[signal] = value
	return out
}

// IndexHit is one raw result from the vector index. Distance is a
// non-negative dissimilarity; the index returns hits ordered by ascending
// distance.
type IndexHit struct {
	ID       string
	Content  string
	Metadata map[string]string
	Distance float64
}

// Answer is the answer-generation consumer's output, grounded on the
// candidates that survived retrieval.
type Answer struct {
	Text    string            `json:"text"`
	Sources []ScoredCandidate `json:"sources"`
}
