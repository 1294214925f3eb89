package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks docqa/internal/vectorstore ChunkStore

import "context"

// Chunk is an indexed unit of document text with its embedding.
type Chunk struct {
	ID           string    `json:"id"`            // "<documentID>-<ordinal>"
	DocumentID   string    `json:"document_id"`   // Owning document
	DocumentName string    `json:"document_name"` // Original file name, reported as a source
	Text         string    `json:"text"`          // Overlap prefix plus content
	Embedding    []float32 `json:"-"`             // Same dimensionality for every chunk in an index
	ChunkIndex   int       `json:"chunk_index"`   // Ordinal within the document (starts at 0)
}

// ChunkStore persists chunks so the in-memory index can be rebuilt after a restart.
type ChunkStore interface {
	// SaveChunks stores chunks with their embeddings.
	SaveChunks(ctx context.Context, chunks []Chunk) error
	// DeleteByDocument removes every chunk of a document.
	DeleteByDocument(ctx context.Context, documentID string) error
	// LoadAll returns all stored chunks ordered by document and chunk index.
	LoadAll(ctx context.Context) ([]Chunk, error)
}
