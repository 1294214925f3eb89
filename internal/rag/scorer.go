package rag

import (
	"context"
	"math"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"docqa/internal/vectorstore"
)

// MinSemanticScore replaces an undefined cosine similarity.
const MinSemanticScore = -1.0

// Weights are the per-occurrence increments of the lexical signals.
type Weights struct {
	Keyword     float64 `yaml:"keyword"`
	NumberBase  float64 `yaml:"number_base"`
	NumberExact float64 `yaml:"number_exact"`
	Phrase      float64 `yaml:"phrase"`
}

// DefaultWeights returns the standard signal weights.
func DefaultWeights() Weights {
	return Weights{
		Keyword:     0.2,
		NumberBase:  0.4,
		NumberExact: 0.3,
		Phrase:      0.25,
	}
}

// Scorer combines semantic similarity with keyword, number and phrase boosts.
type Scorer struct {
	weights Weights
	workers int
}

// NewScorer creates a scorer. workers bounds the goroutines used by ScoreAll;
// zero or less means GOMAXPROCS.
func NewScorer(weights Weights, workers int) *Scorer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scorer{weights: weights, workers: workers}
}

// Score computes every signal for one chunk. The four signals are summed without normalization.
func (s *Scorer) Score(queryVec []float32, q QueryAnalysis, c vectorstore.Chunk) ScoredChunk {
	sc := ScoredChunk{
		Chunk:      c,
		Strategies: []string{},
	}

	sc.SemanticScore = vectorstore.CosineSimilarity(queryVec, c.Embedding)
	if math.IsNaN(sc.SemanticScore) || math.IsInf(sc.SemanticScore, 0) {
		sc.SemanticScore = MinSemanticScore
		sc.Strategies = append(sc.Strategies, StrategySemanticInvalid)
	}

	text := strings.ToLower(c.Text)

	var occurrences int
	for _, kw := range q.Keywords {
		if n := strings.Count(text, kw); n > 0 {
			occurrences += n
			sc.MatchedKeywords = append(sc.MatchedKeywords, KeywordMatch{Keyword: kw, Count: n})
		}
	}
	if occurrences > 0 {
		sc.KeywordScore = s.weights.Keyword * float64(occurrences)
		sc.Strategies = append(sc.Strategies, StrategyKeywords)
	}

	sc.ChunkNumbers = Numbers(c.Text)
	if len(sc.ChunkNumbers) > 0 && q.NumericContext {
		sc.NumberScore = s.weights.NumberBase
		for _, n := range q.Numbers {
			if slices.Contains(sc.ChunkNumbers, n) {
				sc.NumberScore += s.weights.NumberExact
			}
		}
		sc.Strategies = append(sc.Strategies, StrategyNumbers)
	}

	for _, p := range q.Phrases {
		if strings.Contains(text, p) {
			sc.MatchedPhrases = append(sc.MatchedPhrases, p)
		}
	}
	if len(sc.MatchedPhrases) > 0 {
		sc.PhraseScore = s.weights.Phrase * float64(len(sc.MatchedPhrases))
		sc.Strategies = append(sc.Strategies, StrategyPhrases)
	}

	sc.FinalScore = sc.SemanticScore + sc.KeywordScore + sc.NumberScore + sc.PhraseScore
	return sc
}

// ScoreAll scores chunks in parallel. Result i corresponds to chunks[i].
func (s *Scorer) ScoreAll(ctx context.Context, queryVec []float32, q QueryAnalysis, chunks []vectorstore.Chunk) ([]ScoredChunk, error) {
	out := make([]ScoredChunk, len(chunks))
	if len(chunks) == 0 {
		return out, nil
	}

	workers := min(s.workers, len(chunks))
	size := (len(chunks) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%64 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				out[i] = s.Score(queryVec, q, chunks[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
