package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/book-agent/internal/config"
	"github.com/kirillkom/book-agent/internal/core/ports"
	"github.com/kirillkom/book-agent/internal/core/usecase"
	"github.com/kirillkom/book-agent/internal/infrastructure/chunking"
	"github.com/kirillkom/book-agent/internal/infrastructure/extractor"
	"github.com/kirillkom/book-agent/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/book-agent/internal/infrastructure/queue/nats"
	"github.com/kirillkom/book-agent/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/book-agent/internal/infrastructure/resilience"
	"github.com/kirillkom/book-agent/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/book-agent/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Books     ports.BookReader
	IngestUC  ports.BookIngestor
	ProcessUC ports.BookProcessor
	Retriever ports.Retriever
	AskUC     ports.QuestionAnswerer
	Contexts  *usecase.ContextExtractor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewBookRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, embedder)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extract := extractor.New(storage)

	retrieval := usecase.NewRetrievalService(embedder, vectorDB, usecase.RetrievalConfig{
		SemanticWeight: cfg.RetrievalSemanticWeight,
		KeywordWeight:  cfg.RetrievalKeywordWeight,
	})

	ingestUC := usecase.NewIngestBookUseCase(repo, storage, queue)
	processUC := usecase.NewProcessBookUseCase(repo, extract, chunker, embedder, vectorDB)
	askUC := usecase.NewAskUseCase(retrieval, generator)
	contexts := usecase.NewContextExtractor(repo, cfg.ContextWindowSize)

	return &App{
		Config: cfg,

		Queue:     queue,
		Books:     repo,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		Retriever: retrieval,
		AskUC:     askUC,
		Contexts:  contexts,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
