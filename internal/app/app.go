// Package app assembles the storage, model clients, index and services from a Config.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docqa/internal/config"
	"docqa/internal/contextutil"
	"docqa/internal/extract"
	"docqa/internal/indexer"
	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/service"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// App holds the wired components shared by the API server and the CLI.
type App struct {
	Config *config.Config
	Tuning config.Tuning

	DB        *sql.DB
	Documents storage.DocumentStore
	History   storage.HistoryStore

	Index     *vectorstore.MemoryIndex
	Pipeline  *indexer.Pipeline
	Retriever *rag.Retriever
	Engine    rag.Engine

	ChatService     service.ChatService
	DocumentService service.DocumentService

	closers []func() error
}

// Option overrides a component built by New.
type Option func(*options)

type options struct {
	embedder  indexer.Embedder
	generator rag.Generator
}

// WithEmbedder replaces the configured embedding provider.
func WithEmbedder(e indexer.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithGenerator replaces the configured generation provider.
func WithGenerator(g rag.Generator) Option {
	return func(o *options) { o.generator = g }
}

// New opens the database and chunk store, rebuilds the index from the store
// and wires the services. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Tuning: tuning}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.DB, err = storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, a.DB.Close)
	if err := storage.Migrate(a.DB); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.InfoContext(ctx, "database initialized", "path", cfg.DBPath)

	a.Documents = storage.NewDocumentRepo(a.DB)
	a.History = storage.NewHistoryRepo(a.DB)

	store, err := a.chunkStore(ctx)
	if err != nil {
		return nil, err
	}

	policy := llm.RetryPolicy{
		Timeout:    cfg.ExternalTimeout,
		MaxRetries: cfg.ExternalMaxRetries,
		Backoff:    llm.DefaultRetryPolicy().Backoff,
	}
	embedder := o.embedder
	if embedder == nil {
		embedder = newEmbedder(cfg, policy)
	}
	generator := o.generator
	if generator == nil {
		generator = newGenerator(cfg, policy)
	}

	a.Index = vectorstore.NewMemoryIndex()
	a.Pipeline = indexer.NewPipeline(
		indexer.NewChunker(tuning.ChunkerOptions()...),
		embedder,
		store,
		a.Index,
		indexer.WithRateLimit(cfg.EmbeddingRateLimit),
	)
	n, err := a.Pipeline.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "index ready", "chunk_count", n, "store_backend", cfg.StoreBackend)

	a.Retriever = rag.NewRetriever(
		a.Index,
		embedder,
		rag.NewAnalyzer(tuning.Vocabulary),
		rag.NewScorer(tuning.Weights, cfg.ScoringWorkers),
		tuning.Retrieval,
	)
	a.Engine = rag.NewEngine(a.Retriever, a.Pipeline, generator)

	a.ChatService = service.NewChatService(a.Engine, a.Retriever, a.Pipeline, a.History, a.Documents, cfg.EmbeddingModelName)
	a.DocumentService = service.NewDocumentService(a.Documents, a.Pipeline, extract.New(), cfg.UploadDir)

	return a, nil
}

// chunkStore returns the durable chunk store selected by STORE_BACKEND.
func (a *App) chunkStore(ctx context.Context) (vectorstore.ChunkStore, error) {
	if a.Config.StoreBackend != config.BackendQdrant {
		return storage.NewChunkRepo(a.DB), nil
	}

	qs, err := vectorstore.NewQdrantStore(a.Config.QdrantURL, a.Config.QdrantCollection)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, qs.Close)
	if err := qs.EnsureCollection(ctx, a.Config.EmbeddingVectorSize); err != nil {
		return nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
	}
	return qs, nil
}

func newEmbedder(cfg *config.Config, policy llm.RetryPolicy) indexer.Embedder {
	if cfg.EmbeddingProvider == config.ProviderHTTP {
		return llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize, policy)
	}
	return llm.NewOpenAIEmbedder(cfg.LLMAPIKey, cfg.EmbeddingBaseURL, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize, policy)
}

func newGenerator(cfg *config.Config, policy llm.RetryPolicy) rag.Generator {
	if cfg.LLMProvider == config.ProviderHTTP {
		return llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, policy)
	}
	return llm.NewOpenAIGenerator(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModelName, policy)
}

// Close releases the resources opened by New, most recent first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
