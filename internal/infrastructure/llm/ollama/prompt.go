package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/book-agent/internal/core/domain"
)

func buildAnswerPrompt(question string, candidates []domain.ScoredCandidate) string {
	var contextBuilder strings.Builder
	for idx, candidate := range candidates {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] chunk=%s book=%s score=%.3f\n%s\n\n",
			idx+1,
			candidate.ID,
			candidate.BookID(),
			displayScore(candidate),
			candidate.Content,
		))
	}

	return fmt.Sprintf(`Answer user question only from context below.
If context is insufficient, say it directly.

Question:
%s

Context:
%s
`, question, contextBuilder.String())
}

func displayScore(candidate domain.ScoredCandidate) float64 {
	for _, signal := range []string{domain.SignalReranked, domain.SignalFused, domain.SignalSemantic, domain.SignalKeyword} {
		if score, ok := candidate.Scores[signal]; ok {
			return score
		}
	}
	return 0
}
