package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"docqa/internal/rag/mocks"
	"docqa/internal/vectorstore"
)

func newTestRetriever(t *testing.T, chunks []vectorstore.Chunk, embedder Embedder) (*Retriever, *vectorstore.MemoryIndex) {
	t.Helper()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	idx := vectorstore.NewMemoryIndex()
	require.NoError(t, idx.Add(chunks))
	r := NewRetriever(idx, embedder, NewAnalyzer(DefaultVocabulary()), NewScorer(DefaultWeights(), 2), DefaultRetrievalConfig())
	return r, idx
}

func docChunk(id, doc, text string, vec ...float32) vectorstore.Chunk {
	return vectorstore.Chunk{ID: id, DocumentID: doc, DocumentName: doc + ".txt", Text: text, Embedding: vec}
}

func TestRetrievalConfig_TopK(t *testing.T) {
	cfg := DefaultRetrievalConfig()

	tests := []struct {
		corpus int
		want   int
	}{
		{corpus: 0, want: 20},
		{corpus: 30, want: 20},
		{corpus: 67, want: 20},
		{corpus: 70, want: 21},
		{corpus: 100, want: 30},
		{corpus: 166, want: 49},
		{corpus: 200, want: 50},
		{corpus: 10000, want: 50},
	}

	for _, tt := range tests {
		if got := cfg.TopK(tt.corpus); got != tt.want {
			t.Fatalf("TopK(%d)=%d, want %d", tt.corpus, got, tt.want)
		}
	}
}

func TestRetrievalConfig_Budget(t *testing.T) {
	if got := DefaultRetrievalConfig().Budget(); got != 32000 {
		t.Fatalf("Budget()=%d, want 32000", got)
	}
}

func TestRetriever_EmptyCorpus(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)

	t.Run("empty index", func(t *testing.T) {
		r, _ := newTestRetriever(t, nil, embedder)
		res, err := r.Retrieve(context.Background(), "¿Cuál es el plazo?", 10)
		require.NoError(t, err)
		assert.Empty(t, res.ContextChunks)
		assert.NotNil(t, res.ContextChunks)
		assert.Empty(t, res.Sources)
	})

	t.Run("zero corpus size", func(t *testing.T) {
		r, _ := newTestRetriever(t, []vectorstore.Chunk{docChunk("a-0", "a", "texto", 1, 0)}, embedder)
		res, err := r.Retrieve(context.Background(), "texto", 0)
		require.NoError(t, err)
		assert.Empty(t, res.ContextChunks)
	})
}

func TestRetriever_EmbedsQueryOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	// Only negative scores, so every cascade stage runs.
	chunks := []vectorstore.Chunk{
		docChunk("a-0", "a", "sin coincidencias", -1, 0),
		docChunk("a-1", "a", "nada relevante", -0.5, -0.5),
	}
	r, _ := newTestRetriever(t, chunks, embedder)

	embedder.EXPECT().EmbedTexts(gomock.Any(), []string{"zzz"}).Return([][]float32{{1, 0}}, nil).Times(1)

	res, err := r.Retrieve(context.Background(), "zzz", len(chunks))
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.ThresholdUsed)
	require.Len(t, res.ContextChunks, 2)
	assert.Less(t, res.ContextChunks[0].FinalScore, 0.0)
	assert.Equal(t, "a-1", res.ContextChunks[0].Chunk.ID)
	assert.Equal(t, "a-0", res.ContextChunks[1].Chunk.ID)
}

func TestRetriever_CascadeStopsAtFirstNonEmptyStage(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	chunks := []vectorstore.Chunk{
		docChunk("a-0", "a", "sin coincidencias", 0.2, float32(math.Sqrt(0.96))),
		docChunk("a-1", "a", "nada relevante", 0, 1),
	}
	r, _ := newTestRetriever(t, chunks, embedder)

	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1, 0}}, nil)

	res, err := r.Retrieve(context.Background(), "zzz", len(chunks))
	require.NoError(t, err)
	assert.Equal(t, 0.15, res.ThresholdUsed)
	assert.Equal(t, 1, res.Candidates)
	require.Len(t, res.ContextChunks, 1)
	assert.Equal(t, "a-0", res.ContextChunks[0].Chunk.ID)
	assert.InDelta(t, 0.2, res.Scores[0], 1e-6)
}

func TestRetriever_SortsAndTruncatesToTopK(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)

	chunks := make([]vectorstore.Chunk, 25)
	for i := range chunks {
		chunks[i] = docChunk(fmt.Sprintf("a-%d", i), "a", "texto", 1, float32(i)/10)
	}
	r, _ := newTestRetriever(t, chunks, embedder)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1, 0}}, nil)

	res, err := r.Retrieve(context.Background(), "zzz", len(chunks))
	require.NoError(t, err)
	assert.Equal(t, 20, res.TopK)
	assert.Equal(t, 0.25, res.ThresholdUsed)
	assert.Len(t, res.ContextChunks, 20)
	assert.Equal(t, "a-0", res.ContextChunks[0].Chunk.ID)
	for i := 1; i < len(res.Scores); i++ {
		assert.GreaterOrEqual(t, res.Scores[i-1], res.Scores[i])
	}
}

func TestRetriever_ContextBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)

	big := strings.Repeat("á", 20000)
	chunks := []vectorstore.Chunk{
		docChunk("a-0", "a", big, 1, 0),
		docChunk("b-0", "b", big, 0.9, 0.1),
		docChunk("c-0", "c", "pequeño", 0.5, 0.5),
	}
	r, _ := newTestRetriever(t, chunks, embedder)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1, 0}}, nil)

	res, err := r.Retrieve(context.Background(), "zzz", len(chunks))
	require.NoError(t, err)

	// The second chunk overflows; the small third one is not backfilled.
	require.Len(t, res.ContextChunks, 1)
	assert.Equal(t, "a-0", res.ContextChunks[0].Chunk.ID)
	assert.Equal(t, []string{"a.txt"}, res.Sources)
	assert.Equal(t, 20100, res.ContextChars)

	total := 0
	for _, c := range res.ContextChunks {
		total += utf8.RuneCountInString(c.Chunk.Text) + 100
	}
	assert.LessOrEqual(t, total, DefaultRetrievalConfig().Budget())
}

func TestRetriever_DistinctSources(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	chunks := []vectorstore.Chunk{
		docChunk("a-0", "a", "uno", 1, 0),
		docChunk("b-0", "b", "dos", 0.9, 0.1),
		docChunk("a-1", "a", "tres", 0.8, 0.2),
	}
	r, _ := newTestRetriever(t, chunks, embedder)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1, 0}}, nil)

	res, err := r.Retrieve(context.Background(), "zzz", len(chunks))
	require.NoError(t, err)
	assert.Len(t, res.ContextChunks, 3)
	assert.Equal(t, []string{"a.txt", "b.txt"}, res.Sources)
	assert.Len(t, res.Scores, 3)
}

func TestRetriever_EmbedErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	r, _ := newTestRetriever(t, []vectorstore.Chunk{docChunk("a-0", "a", "texto", 1, 0)}, embedder)

	errBoom := errors.New("boom")
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(nil, errBoom)
	_, err := r.Retrieve(context.Background(), "texto", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "failed to embed query")

	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{}, nil)
	_, err = r.Retrieve(context.Background(), "texto", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 query embedding")
}

func TestRetriever_ExpansionsNotScored(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	// The chunk only mentions the synonym of the query keyword.
	r, _ := newTestRetriever(t, []vectorstore.Chunk{docChunk("a-0", "a", "el préstamo", 0, 1)}, embedder)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1, 0}}, nil)

	res, err := r.Retrieve(context.Background(), "crédito", 1)
	require.NoError(t, err)
	assert.Contains(t, res.Expansions, "préstamo")
	require.Len(t, res.ContextChunks, 1)
	assert.Zero(t, res.ContextChunks[0].KeywordScore)
	assert.Equal(t, 0.0, res.ThresholdUsed)
}

func TestFilterByThreshold_Monotonic(t *testing.T) {
	a := NewAnalyzer(DefaultVocabulary())
	s := NewScorer(DefaultWeights(), 1)
	q := a.Analyze("¿Cuál es la tasa máxima?")

	var chunks []vectorstore.Chunk
	for i := 0; i < 40; i++ {
		text := "texto general"
		if i%3 == 0 {
			text = fmt.Sprintf("La tasa es de %d por ciento.", i)
		}
		angle := float64(i) * math.Pi / 40
		chunks = append(chunks, docChunk(fmt.Sprintf("a-%d", i), "a", text, float32(math.Cos(angle)), float32(math.Sin(angle))))
	}

	scored, err := s.ScoreAll(context.Background(), []float32{1, 0}, q, chunks)
	require.NoError(t, err)

	high := len(filterByThreshold(scored, 0.25, false))
	mid := len(filterByThreshold(scored, 0.15, false))
	low := len(filterByThreshold(scored, 0.0, false))
	all := len(filterByThreshold(scored, 0.0, true))

	assert.GreaterOrEqual(t, mid, high)
	assert.GreaterOrEqual(t, low, mid)
	assert.GreaterOrEqual(t, all, low)
	assert.Equal(t, len(chunks), all)
}
