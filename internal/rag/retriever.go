package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docqa/internal/rag Embedder
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks docqa/internal/rag Generator

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"unicode/utf8"

	"docqa/internal/contextutil"
	"docqa/internal/vectorstore"
)

// Embedder converts texts to embedding vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Index provides read-only snapshots of the indexed chunks.
type Index interface {
	Snapshot() []vectorstore.Chunk
}

// RetrievalConfig controls candidate sizing, the threshold cascade and the context budget.
type RetrievalConfig struct {
	// Thresholds are tried in order until one yields candidates. The last
	// stage keeps every scored chunk whatever its score.
	Thresholds    []float64 `yaml:"thresholds"`
	TopKRatio     float64   `yaml:"top_k_ratio"`
	MinTopK       int       `yaml:"min_top_k"`
	MaxTopK       int       `yaml:"max_top_k"`
	MaxTokens     int       `yaml:"max_tokens"`
	CharsPerToken int       `yaml:"chars_per_token"`
	ChunkOverhead int       `yaml:"chunk_overhead"`
}

// DefaultRetrievalConfig returns the standard retrieval settings.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Thresholds:    []float64{0.25, 0.15, 0.0},
		TopKRatio:     0.3,
		MinTopK:       20,
		MaxTopK:       50,
		MaxTokens:     8000,
		CharsPerToken: 4,
		ChunkOverhead: 100,
	}
}

// TopK returns the candidate limit for a corpus of the given size.
func (c RetrievalConfig) TopK(corpusSize int) int {
	k := int(float64(corpusSize) * c.TopKRatio)
	return max(c.MinTopK, min(k, c.MaxTopK))
}

// Budget returns the maximum number of context characters.
func (c RetrievalConfig) Budget() int {
	return c.MaxTokens * c.CharsPerToken
}

// Retriever ranks indexed chunks against a query.
type Retriever struct {
	index    Index
	embedder Embedder
	analyzer *Analyzer
	scorer   *Scorer
	cfg      RetrievalConfig
}

// NewRetriever creates a retriever.
func NewRetriever(index Index, embedder Embedder, analyzer *Analyzer, scorer *Scorer, cfg RetrievalConfig) *Retriever {
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = DefaultRetrievalConfig().Thresholds
	}
	return &Retriever{
		index:    index,
		embedder: embedder,
		analyzer: analyzer,
		scorer:   scorer,
		cfg:      cfg,
	}
}

// Retrieve scores the current index snapshot against query and returns the
// best chunks that fit the context budget. The query is embedded once.
func (r *Retriever) Retrieve(ctx context.Context, query string, corpusSize int) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	result := &Result{
		ContextChunks: []ScoredChunk{},
		Scores:        []float64{},
		Sources:       []string{},
		Analysis:      r.analyzer.Analyze(query),
		Expansions:    r.analyzer.Expand(query),
	}

	snapshot := r.index.Snapshot()
	if corpusSize <= 0 || len(snapshot) == 0 {
		logger.InfoContext(ctx, "retrieval skipped, empty corpus")
		return result, nil
	}
	result.TopK = r.cfg.TopK(corpusSize)

	vecs, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vecs))
	}

	scored, err := r.scorer.ScoreAll(ctx, vecs[0], result.Analysis, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to score chunks: %w", err)
	}

	// Scores do not depend on the threshold, so every stage filters the same set.
	var candidates []ScoredChunk
	for i, threshold := range r.cfg.Thresholds {
		last := i == len(r.cfg.Thresholds)-1
		candidates = filterByThreshold(scored, threshold, last)
		result.ThresholdUsed = threshold
		logger.DebugContext(ctx, "threshold stage", "threshold", threshold, "candidates", len(candidates))
		if len(candidates) > 0 {
			break
		}
	}
	result.Candidates = len(candidates)

	slices.SortStableFunc(candidates, func(a, b ScoredChunk) int {
		return cmp.Compare(b.FinalScore, a.FinalScore)
	})
	if len(candidates) > result.TopK {
		candidates = candidates[:result.TopK]
	}

	budget := r.cfg.Budget()
	seen := make(map[string]struct{})
	for _, c := range candidates {
		cost := utf8.RuneCountInString(c.Chunk.Text) + r.cfg.ChunkOverhead
		if result.ContextChars+cost > budget {
			break
		}
		result.ContextChars += cost
		result.ContextChunks = append(result.ContextChunks, c)
		result.Scores = append(result.Scores, c.FinalScore)
		if _, ok := seen[c.Chunk.DocumentName]; !ok {
			seen[c.Chunk.DocumentName] = struct{}{}
			result.Sources = append(result.Sources, c.Chunk.DocumentName)
		}
	}

	attrs := []any{
		"corpus_size", corpusSize,
		"top_k", result.TopK,
		"threshold", result.ThresholdUsed,
		"candidates", result.Candidates,
		"context_chunks", len(result.ContextChunks),
		"context_chars", result.ContextChars,
	}
	if len(result.ContextChunks) > 0 {
		attrs = append(attrs, "best_score", result.ContextChunks[0].FinalScore)
	}
	logger.InfoContext(ctx, "retrieval completed", attrs...)
	return result, nil
}

// filterByThreshold keeps chunks scoring at least threshold. With keepAll set
// every chunk is kept, negative scores included.
func filterByThreshold(scored []ScoredChunk, threshold float64, keepAll bool) []ScoredChunk {
	out := make([]ScoredChunk, 0, len(scored))
	for _, sc := range scored {
		if keepAll || sc.FinalScore >= threshold {
			out = append(out, sc)
		}
	}
	return out
}
