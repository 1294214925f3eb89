package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_dependencies.go -package=mocks docqa/internal/service Answerer,Searcher,IndexReporter,Ingestor
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_services.go -package=mocks docqa/internal/service ChatService,DocumentService

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"docqa/internal/contextutil"
	"docqa/internal/indexer"
	"docqa/internal/rag"
	"docqa/internal/storage"
)

const (
	// AnonymousUser is recorded when a chat request carries no user ID.
	AnonymousUser = "anonymous"
	// GeneralTopic is assigned to questions that match no topic keyword.
	GeneralTopic = "Consulta General"
	// TopTopicCount is the number of topics reported in statistics.
	TopTopicCount = 5
	// MaxHistoryLimit caps the number of history entries returned at once.
	MaxHistoryLimit = 1000
)

// topicKeywords maps topics to the words that classify a question. Order matters:
// the first topic with a matching word wins.
var topicKeywords = []struct {
	topic string
	words []string
}{
	{"Políticas de Crédito", []string{"crédito", "préstamo", "financiamiento", "tasa"}},
	{"Procedimientos de Apertura", []string{"apertura", "cuenta", "abrir"}},
	{"Manual de Atención", []string{"atención", "servicio", "cliente", "socio"}},
	{"Normativas", []string{"normativa", "reglamento", "política"}},
	{"Beneficios", []string{"beneficio", "ventaja", "promoción"}},
}

// ClassifyTopic returns the topic of a question.
func ClassifyTopic(message string) string {
	lower := strings.ToLower(message)
	for _, t := range topicKeywords {
		for _, w := range t.words {
			if strings.Contains(lower, w) {
				return t.topic
			}
		}
	}
	return GeneralTopic
}

// Answerer answers questions from the indexed documents.
// This interface is defined from the service layer's perspective (consumer-first).
type Answerer interface {
	Ask(ctx context.Context, req rag.AskRequest) (rag.AskResponse, error)
}

// Searcher ranks indexed chunks against a query without generating an answer.
type Searcher interface {
	Retrieve(ctx context.Context, query string, corpusSize int) (*rag.Result, error)
}

// IndexReporter reports on the in-memory chunk index.
type IndexReporter interface {
	Len() int
	Stats(embeddingModelName string) indexer.IndexStats
}

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	Message        string
	UserID         string
	ConversationID string
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	Answer          string
	Sources         []string
	RelevanceScores []float64
	ChunksFound     int
	SearchQuality   string
	Topic           string
	ConversationID  string
	Timestamp       time.Time
}

// Statistics summarizes usage of the system.
type Statistics struct {
	TotalQueries   int                  `json:"totalQueries"`
	TotalDocuments int                  `json:"totalDocuments"`
	ActiveUsers    int                  `json:"activeUsers"`
	TotalVectors   int                  `json:"totalVectors"`
	TopTopics      []storage.TopicCount `json:"topTopics"`
	Index          indexer.IndexStats   `json:"index"`
}

// ChatService answers questions and keeps the chat history.
type ChatService interface {
	// ProcessChat answers a question and records it in the history.
	ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// Retrieve runs retrieval only and returns the ranked chunks with their signals.
	Retrieve(ctx context.Context, query string) (*rag.Result, error)
	// History returns up to limit entries, oldest first. An empty userID returns every user's entries.
	History(ctx context.Context, userID string, limit int) ([]*storage.HistoryRecord, error)
	// ClearHistory removes every history entry and returns how many were removed.
	ClearHistory(ctx context.Context) (int64, error)
	// Statistics aggregates the history and the index.
	Statistics(ctx context.Context) (Statistics, error)
}

// chatService implements ChatService.
type chatService struct {
	answerer           Answerer
	searcher           Searcher
	index              IndexReporter
	history            storage.HistoryStore
	documents          storage.DocumentStore
	embeddingModelName string
}

// NewChatService creates a new ChatService.
func NewChatService(answerer Answerer, searcher Searcher, index IndexReporter, history storage.HistoryStore, documents storage.DocumentStore, embeddingModelName string) ChatService {
	return &chatService{
		answerer:           answerer,
		searcher:           searcher,
		index:              index,
		history:            history,
		documents:          documents,
		embeddingModelName: embeddingModelName,
	}
}

// ProcessChat processes a chat request.
func (s *chatService) ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		logger.WarnContext(ctx, "empty message in chat request")
		return ChatResponse{}, &ValidationError{
			Field:   "message",
			Message: "cannot be empty",
		}
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = AnonymousUser
	}

	answer, err := s.answerer.Ask(ctx, rag.AskRequest{Question: message})
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		return ChatResponse{}, classifyError(err, "failed to answer question")
	}

	topic := ClassifyTopic(message)
	rec := &storage.HistoryRecord{
		ID:             uuid.New().String(),
		UserID:         userID,
		ConversationID: req.ConversationID,
		Question:       message,
		Answer:         answer.Answer,
		Sources:        answer.Sources,
		ChunksFound:    answer.ChunksFound,
		SearchQuality:  answer.SearchQuality,
		Topic:          topic,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.history.Insert(ctx, rec); err != nil {
		// The answer is still returned; only the history entry is lost.
		logger.ErrorContext(ctx, "failed to record chat history", "error", err)
	}

	logger.InfoContext(ctx, "chat request processed successfully",
		"user_id", userID,
		"topic", topic,
		"chunks_found", answer.ChunksFound,
		"search_quality", answer.SearchQuality,
	)
	return ChatResponse{
		Answer:          answer.Answer,
		Sources:         answer.Sources,
		RelevanceScores: answer.RelevanceScores,
		ChunksFound:     answer.ChunksFound,
		SearchQuality:   answer.SearchQuality,
		Topic:           topic,
		ConversationID:  req.ConversationID,
		Timestamp:       rec.CreatedAt,
	}, nil
}

// Retrieve runs retrieval against the current index.
func (s *chatService) Retrieve(ctx context.Context, query string) (*rag.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "cannot be empty"}
	}

	result, err := s.searcher.Retrieve(ctx, query, s.index.Len())
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "retrieval failed", "error", err)
		return nil, classifyError(err, "failed to retrieve chunks")
	}
	return result, nil
}

// History returns chat history entries.
func (s *chatService) History(ctx context.Context, userID string, limit int) ([]*storage.HistoryRecord, error) {
	switch {
	case limit < 0:
		return nil, &ValidationError{Field: "limit", Message: "must not be negative"}
	case limit == 0:
		limit = storage.DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	records, err := s.history.List(ctx, strings.TrimSpace(userID), limit)
	if err != nil {
		return nil, WrapError(err, "failed to list history")
	}
	return records, nil
}

// ClearHistory removes the whole chat history.
func (s *chatService) ClearHistory(ctx context.Context) (int64, error) {
	n, err := s.history.Clear(ctx)
	if err != nil {
		return 0, WrapError(err, "failed to clear history")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "chat history cleared", "entries", n)
	return n, nil
}

// Statistics aggregates usage statistics.
func (s *chatService) Statistics(ctx context.Context) (Statistics, error) {
	hs, err := s.history.Stats(ctx, TopTopicCount)
	if err != nil {
		return Statistics{}, WrapError(err, "failed to compute history statistics")
	}
	docs, err := s.documents.Count(ctx)
	if err != nil {
		return Statistics{}, WrapError(err, "failed to count documents")
	}

	return Statistics{
		TotalQueries:   hs.TotalQueries,
		TotalDocuments: docs,
		ActiveUsers:    hs.UniqueUsers,
		TotalVectors:   s.index.Len(),
		TopTopics:      hs.TopTopics,
		Index:          s.index.Stats(s.embeddingModelName),
	}, nil
}
