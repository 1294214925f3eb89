package storage

import "time"

// DocumentRecord represents an uploaded document in the database.
type DocumentRecord struct {
	ID           string    `json:"id"`            // UUID
	OriginalName string    `json:"original_name"` // File name as uploaded, reported as a source
	StoredName   string    `json:"stored_name"`   // File name under the upload directory
	Extension    string    `json:"extension"`     // Lowercase, with leading dot
	SizeBytes    int64     `json:"size_bytes"`
	TextLength   int       `json:"text_length"` // Normalized text length in runes
	ChunkCount   int       `json:"chunk_count"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// HistoryRecord represents one answered chat message.
type HistoryRecord struct {
	ID             string    `json:"id"` // UUID
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	Sources        []string  `json:"sources"`
	ChunksFound    int       `json:"chunks_found"`
	SearchQuality  string    `json:"search_quality"`
	Topic          string    `json:"topic"`
	CreatedAt      time.Time `json:"created_at"`
}

// TopicCount is the number of questions classified under a topic.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// HistoryStats aggregates the chat history.
type HistoryStats struct {
	TotalQueries int          `json:"total_queries"`
	UniqueUsers  int          `json:"unique_users"`
	TopTopics    []TopicCount `json:"top_topics"`
}
