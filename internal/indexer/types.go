package indexer

// Piece is one chunk as produced by the chunker.
type Piece struct {
	Overlap string // Tail of the previous chunk's content, empty for the first chunk
	Content string // Text accumulated for this chunk
}

// Text returns the chunk text that gets embedded and indexed.
func (p Piece) Text() string {
	if p.Overlap == "" {
		return p.Content
	}
	return p.Overlap + paragraphSeparator + p.Content
}

// IngestResult summarizes a document ingestion.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	TextLength int    `json:"text_length"`
}
