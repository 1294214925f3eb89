package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"docqa/internal/vectorstore"
)

const (
	// ChunkerVersion is the version identifier for the chunker implementation.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "v2.0"
	// CharsPerToken is an approximation for token counting.
	CharsPerToken = 4.0
)

// IndexStats describes the current content of the index.
type IndexStats struct {
	// Documents is the number of distinct documents with at least one chunk.
	Documents int `json:"documents"`
	// Chunks is the total number of indexed chunks.
	Chunks int `json:"chunks"`
	// Dimension is the embedding dimensionality, 0 when empty.
	Dimension int `json:"dimension"`
	// ChunkTokenStats contains statistics about token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build (chunker + embedding model + params).
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// Stats computes statistics over the current index snapshot.
func (p *Pipeline) Stats(embeddingModelName string) IndexStats {
	return ComputeStats(p.index.Snapshot(), p.chunker, embeddingModelName)
}

// ComputeStats computes index statistics from a set of chunks.
func ComputeStats(chunks []vectorstore.Chunk, chunker *Chunker, embeddingModelName string) IndexStats {
	stats := IndexStats{
		Chunks:         len(chunks),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   IndexVersion(chunker, embeddingModelName),
	}
	if len(chunks) == 0 {
		return stats
	}
	stats.Dimension = len(chunks[0].Embedding)

	docs := make(map[string]struct{})
	tokenCounts := make([]int, 0, len(chunks))
	for _, c := range chunks {
		docs[c.DocumentID] = struct{}{}
		tokenCount := int(math.Round(float64(utf8.RuneCountInString(c.Text)) / CharsPerToken))
		tokenCounts = append(tokenCounts, max(tokenCount, 1))
	}
	stats.Documents = len(docs)
	stats.ChunkTokenStats = computeTokenStats(tokenCounts)
	return stats
}

// IndexVersion hashes the chunker version, embedding model and chunking parameters.
func IndexVersion(chunker *Chunker, embeddingModelName string) string {
	input := fmt.Sprintf("%s|%s|targetSize=%d|overlapSize=%d",
		ChunkerVersion, embeddingModelName, chunker.TargetSize(), chunker.OverlapSize())
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	p95Index = max(0, min(p95Index, len(sorted)-1))

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
