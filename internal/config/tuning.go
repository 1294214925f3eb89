package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"docqa/internal/indexer"
	"docqa/internal/rag"
)

// Tuning holds the retrieval parameters that can be overridden from a YAML file.
type Tuning struct {
	Chunking struct {
		TargetSize  int `yaml:"target_size"`
		OverlapSize int `yaml:"overlap_size"`
	} `yaml:"chunking"`
	Retrieval  rag.RetrievalConfig `yaml:"retrieval"`
	Weights    rag.Weights         `yaml:"weights"`
	Vocabulary rag.Vocabulary      `yaml:"vocabulary"`
}

// DefaultTuning returns the built-in tuning.
func DefaultTuning() Tuning {
	t := Tuning{
		Retrieval:  rag.DefaultRetrievalConfig(),
		Weights:    rag.DefaultWeights(),
		Vocabulary: rag.DefaultVocabulary(),
	}
	t.Chunking.TargetSize = indexer.DefaultTargetSize
	t.Chunking.OverlapSize = indexer.DefaultOverlapSize
	return t
}

// LoadTuning reads a tuning file over the defaults. Keys missing from the file
// keep their default value and synonyms are added to the default table.
// An empty path or a missing file yields the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	return t, nil
}

// Validate reports the first setting that cannot be used.
func (t Tuning) Validate() error {
	c := t.Chunking
	if c.TargetSize <= 0 {
		return fmt.Errorf("chunking.target_size must be positive")
	}
	if c.OverlapSize < 0 || c.OverlapSize >= c.TargetSize {
		return fmt.Errorf("chunking.overlap_size must be in [0, target_size)")
	}

	r := t.Retrieval
	if len(r.Thresholds) == 0 {
		return fmt.Errorf("retrieval.thresholds must not be empty")
	}
	if !slices.IsSortedFunc(r.Thresholds, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	}) {
		return fmt.Errorf("retrieval.thresholds must be in descending order")
	}
	if r.TopKRatio <= 0 {
		return fmt.Errorf("retrieval.top_k_ratio must be positive")
	}
	if r.MinTopK <= 0 || r.MaxTopK < r.MinTopK {
		return fmt.Errorf("retrieval.min_top_k must be positive and not above max_top_k")
	}
	if r.MaxTokens <= 0 || r.CharsPerToken <= 0 || r.ChunkOverhead < 0 {
		return fmt.Errorf("retrieval budget settings must be positive")
	}

	w := t.Weights
	if w.Keyword < 0 || w.NumberBase < 0 || w.NumberExact < 0 || w.Phrase < 0 {
		return fmt.Errorf("weights must not be negative")
	}
	return nil
}

// ChunkerOptions returns the chunker options for the tuning.
func (t Tuning) ChunkerOptions() []indexer.Option {
	return []indexer.Option{
		indexer.WithTargetSize(t.Chunking.TargetSize),
		indexer.WithOverlapSize(t.Chunking.OverlapSize),
	}
}
