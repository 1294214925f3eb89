package vectorstore

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
)

var (
	// ErrDimensionMismatch is returned when a chunk's embedding does not match the index dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrDuplicateChunk is returned when a chunk ID is already indexed.
	ErrDuplicateChunk = errors.New("duplicate chunk id")
)

// MemoryIndex owns the indexed chunks and hands out immutable snapshots.
//
// Writers are serialized by mu and publish a freshly built slice; readers load
// the current slice without locking and keep a consistent view for as long as
// they hold it. Snapshots must not be modified.
type MemoryIndex struct {
	mu     sync.Mutex
	chunks atomic.Pointer[[]Chunk]
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	idx := &MemoryIndex{}
	empty := []Chunk{}
	idx.chunks.Store(&empty)
	return idx
}

// Snapshot returns the chunks visible at the time of the call.
func (m *MemoryIndex) Snapshot() []Chunk {
	return *m.chunks.Load()
}

// Len returns the number of indexed chunks.
func (m *MemoryIndex) Len() int {
	return len(m.Snapshot())
}

// Dimension returns the embedding dimensionality, or 0 when the index is empty.
func (m *MemoryIndex) Dimension() int {
	snap := m.Snapshot()
	if len(snap) == 0 {
		return 0
	}
	return len(snap[0].Embedding)
}

// Add appends chunks to the index. Either all chunks are added or none are.
func (m *MemoryIndex) Add(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.Snapshot()
	dim := 0
	if len(cur) > 0 {
		dim = len(cur[0].Embedding)
	}

	seen := make(map[string]struct{}, len(cur)+len(chunks))
	for _, c := range cur {
		seen[c.ID] = struct{}{}
	}
	if err := validate(chunks, dim, seen); err != nil {
		return err
	}

	next := make([]Chunk, len(cur), len(cur)+len(chunks))
	copy(next, cur)
	for _, c := range chunks {
		c.Embedding = slices.Clone(c.Embedding)
		next = append(next, c)
	}
	m.chunks.Store(&next)
	return nil
}

// Reset replaces the whole index content.
func (m *MemoryIndex) Reset(chunks []Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := validate(chunks, 0, make(map[string]struct{}, len(chunks))); err != nil {
		return err
	}

	next := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		c.Embedding = slices.Clone(c.Embedding)
		next = append(next, c)
	}
	m.chunks.Store(&next)
	return nil
}

// RemoveByDocument removes all chunks of a document and returns how many were removed.
func (m *MemoryIndex) RemoveByDocument(documentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.Snapshot()
	next := make([]Chunk, 0, len(cur))
	for _, c := range cur {
		if c.DocumentID != documentID {
			next = append(next, c)
		}
	}

	removed := len(cur) - len(next)
	if removed > 0 {
		m.chunks.Store(&next)
	}
	return removed
}

// DocumentChunks returns a document's chunks in index order.
func (m *MemoryIndex) DocumentChunks(documentID string) []Chunk {
	var out []Chunk
	for _, c := range m.Snapshot() {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out
}

// validate checks ids and dimensions. dim 0 means the first chunk sets it.
func validate(chunks []Chunk, dim int, seen map[string]struct{}) error {
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding: %w", c.ID, ErrDimensionMismatch)
		}
		if dim == 0 {
			dim = len(c.Embedding)
		}
		if len(c.Embedding) != dim {
			return fmt.Errorf("chunk %s has dimension %d, expected %d: %w", c.ID, len(c.Embedding), dim, ErrDimensionMismatch)
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("chunk %s: %w", c.ID, ErrDuplicateChunk)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b.
// It returns NaN when the vectors differ in length, are empty, or either has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
