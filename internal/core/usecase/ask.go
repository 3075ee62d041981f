package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/book-agent/internal/core/domain"
	"github.com/kirillkom/book-agent/internal/core/ports"
)

const defaultAskTopK = 5

// AskUseCase is the answer-generation consumer: it feeds the reranked
// retrieval output to the generator and returns the answer together with
// its sources.
type AskUseCase struct {
	retriever ports.Retriever
	generator ports.AnswerGenerator
}

func NewAskUseCase(retriever ports.Retriever, generator ports.AnswerGenerator) *AskUseCase {
	return &AskUseCase{
		retriever: retriever,
		generator: generator,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question, bookID string, topK int) (*domain.Answer, error) {
	if topK <= 0 {
		topK = defaultAskTopK
	}

	candidates, err := uc.retriever.RetrieveWithReranking(ctx, question, bookID, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, candidates)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:    text,
		Sources: candidates,
	}, nil
}
