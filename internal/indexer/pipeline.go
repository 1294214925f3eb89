package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docqa/internal/indexer Embedder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"docqa/internal/contextutil"
	"docqa/internal/normalize"
	"docqa/internal/vectorstore"
)

const defaultBatchSize = 16

var (
	// ErrEmptyChunkResult is returned when a document yields no chunks.
	ErrEmptyChunkResult = errors.New("document produced no chunks")
	// ErrAlreadyIndexed is returned when a document ID is ingested twice,
	// including while a first ingest of it is still running.
	ErrAlreadyIndexed = errors.New("document already indexed")
)

// Embedder converts texts to embedding vectors, one per input, in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the in-memory chunk index mutated by the pipeline.
type Index interface {
	Add(chunks []vectorstore.Chunk) error
	Reset(chunks []vectorstore.Chunk) error
	RemoveByDocument(documentID string) int
	DocumentChunks(documentID string) []vectorstore.Chunk
	Snapshot() []vectorstore.Chunk
}

// Pipeline turns raw document text into indexed chunks and keeps the chunk
// store and the in-memory index in step.
type Pipeline struct {
	chunker   *Chunker
	embedder  Embedder
	store     vectorstore.ChunkStore
	index     Index
	limiter   *rate.Limiter
	batchSize int

	mu        sync.Mutex
	ingesting map[string]struct{}
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithRateLimit limits embedding requests to rps per second. Zero or less disables limiting.
func WithRateLimit(rps float64) PipelineOption {
	return func(p *Pipeline) {
		if rps > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(chunker *Chunker, embedder Embedder, store vectorstore.ChunkStore, index Index, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		index:     index,
		batchSize: defaultBatchSize,
		ingesting: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Chunker returns the chunker used for ingestion.
func (p *Pipeline) Chunker() *Chunker {
	return p.chunker
}

// Len returns the number of indexed chunks.
func (p *Pipeline) Len() int {
	return len(p.index.Snapshot())
}

// DocumentChunks returns the indexed chunks of a document in chunk order.
func (p *Pipeline) DocumentChunks(documentID string) []vectorstore.Chunk {
	return p.index.DocumentChunks(documentID)
}

// IngestDocument normalizes, chunks and embeds rawText, then stores and indexes
// the chunks. Nothing is stored or indexed unless every chunk has an embedding.
func (p *Pipeline) IngestDocument(ctx context.Context, documentID, documentName, rawText string) (IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if !p.claim(documentID) {
		return IngestResult{}, fmt.Errorf("document %s: %w", documentID, ErrAlreadyIndexed)
	}
	defer p.release(documentID)

	text := normalize.Text(rawText)
	pieces := p.chunker.Split(text)
	if len(pieces) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "document_id", documentID, "text_length", utf8.RuneCountInString(text))
		return IngestResult{}, fmt.Errorf("document %s: %w", documentID, ErrEmptyChunkResult)
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Text()
	}

	embeddings, err := p.embed(ctx, texts)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return IngestResult{}, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(embeddings))
	}

	chunks := make([]vectorstore.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = vectorstore.Chunk{
			ID:           fmt.Sprintf("%s-%d", documentID, i),
			DocumentID:   documentID,
			DocumentName: documentName,
			Text:         t,
			Embedding:    embeddings[i],
			ChunkIndex:   i,
		}
	}

	if err := p.store.SaveChunks(ctx, chunks); err != nil {
		return IngestResult{}, fmt.Errorf("failed to save chunks: %w", err)
	}
	if err := p.index.Add(chunks); err != nil {
		if delErr := p.store.DeleteByDocument(ctx, documentID); delErr != nil {
			logger.ErrorContext(ctx, "failed to roll back stored chunks", "document_id", documentID, "error", delErr)
		}
		return IngestResult{}, fmt.Errorf("failed to index chunks: %w", err)
	}

	logger.InfoContext(ctx, "indexed document",
		"document_id", documentID,
		"document_name", documentName,
		"chunk_count", len(chunks),
		"text_length", utf8.RuneCountInString(text),
	)
	return IngestResult{
		DocumentID: documentID,
		ChunkCount: len(chunks),
		TextLength: utf8.RuneCountInString(text),
	}, nil
}

// claim reserves documentID for one ingest. It fails if the document is
// indexed or another ingest of it holds the claim.
func (p *Pipeline) claim(documentID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.ingesting[documentID]; busy {
		return false
	}
	if len(p.index.DocumentChunks(documentID)) > 0 {
		return false
	}
	p.ingesting[documentID] = struct{}{}
	return true
}

func (p *Pipeline) release(documentID string) {
	p.mu.Lock()
	delete(p.ingesting, documentID)
	p.mu.Unlock()
}

// embed requests embeddings in batches, waiting on the rate limiter before each request.
func (p *Pipeline) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		vecs, err := p.embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// RemoveDocument deletes a document's chunks from the store and the index and
// returns how many indexed chunks were removed.
func (p *Pipeline) RemoveDocument(ctx context.Context, documentID string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := p.store.DeleteByDocument(ctx, documentID); err != nil {
		return 0, fmt.Errorf("failed to delete stored chunks: %w", err)
	}
	removed := p.index.RemoveByDocument(documentID)

	logger.InfoContext(ctx, "removed document chunks", "document_id", documentID, "chunk_count", removed)
	return removed, nil
}

// Load rebuilds the in-memory index from the chunk store.
func (p *Pipeline) Load(ctx context.Context) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	chunks, err := p.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load chunks: %w", err)
	}
	if err := p.index.Reset(chunks); err != nil {
		return 0, fmt.Errorf("failed to rebuild index: %w", err)
	}

	logger.InfoContext(ctx, "index loaded", "chunk_count", len(chunks))
	return len(chunks), nil
}
