package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/indexer"
	"docqa/internal/rag"
)

func writeTuning(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTuning_Defaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		tuning, err := LoadTuning(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultTuning(), tuning)
	}
}

func TestLoadTuning_Overrides(t *testing.T) {
	path := writeTuning(t, `
chunking:
  target_size: 800
retrieval:
  thresholds: [0.3, 0.1, 0.0]
  max_top_k: 40
weights:
  keyword: 0.1
vocabulary:
  stop_words: [el, la]
  synonyms:
    cuota: [pago]
`)

	tuning, err := LoadTuning(path)
	require.NoError(t, err)

	assert.Equal(t, 800, tuning.Chunking.TargetSize)
	assert.Equal(t, indexer.DefaultOverlapSize, tuning.Chunking.OverlapSize)
	assert.Equal(t, []float64{0.3, 0.1, 0.0}, tuning.Retrieval.Thresholds)
	assert.Equal(t, 40, tuning.Retrieval.MaxTopK)
	assert.Equal(t, rag.DefaultRetrievalConfig().MinTopK, tuning.Retrieval.MinTopK)
	assert.Equal(t, 0.1, tuning.Weights.Keyword)
	assert.Equal(t, rag.DefaultWeights().NumberBase, tuning.Weights.NumberBase)
	assert.Equal(t, []string{"el", "la"}, tuning.Vocabulary.StopWords)
	assert.Equal(t, []string{"pago"}, tuning.Vocabulary.Synonyms["cuota"])
	assert.Contains(t, tuning.Vocabulary.Synonyms, "crédito")
	assert.Equal(t, rag.DefaultVocabulary().NumericContext, tuning.Vocabulary.NumericContext)
}

func TestLoadTuning_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "retrieval: [unclosed"},
		{name: "wrong type", content: "chunking:\n  target_size: big\n"},
		{name: "zero target size", content: "chunking:\n  target_size: 0\n"},
		{name: "overlap not below target", content: "chunking:\n  target_size: 100\n  overlap_size: 100\n"},
		{name: "empty thresholds", content: "retrieval:\n  thresholds: []\n"},
		{name: "ascending thresholds", content: "retrieval:\n  thresholds: [0.0, 0.25]\n"},
		{name: "max below min top k", content: "retrieval:\n  min_top_k: 30\n  max_top_k: 10\n"},
		{name: "zero budget", content: "retrieval:\n  max_tokens: 0\n"},
		{name: "negative weight", content: "weights:\n  phrase: -0.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTuning(writeTuning(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestTuning_ChunkerOptions(t *testing.T) {
	tuning := DefaultTuning()
	tuning.Chunking.TargetSize = 300
	tuning.Chunking.OverlapSize = 50

	chunker := indexer.NewChunker(tuning.ChunkerOptions()...)
	assert.Equal(t, 300, chunker.TargetSize())
	assert.Equal(t, 50, chunker.OverlapSize())
}
