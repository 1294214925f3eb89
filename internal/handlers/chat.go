package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"docqa/internal/contextutil"
	"docqa/internal/rag"
	"docqa/internal/service"
	"docqa/internal/storage"
)

// ChatHandler handles HTTP requests for chat, history and statistics.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Success         bool      `json:"success"`
	Response        string    `json:"response"`
	Sources         []string  `json:"sources"`
	RelevanceScores []float64 `json:"relevanceScores"`
	ChunksFound     int       `json:"chunksFound"`
	SearchQuality   string    `json:"searchQuality"`
	Topic           string    `json:"topic"`
	ConversationID  string    `json:"conversationId,omitempty"`
	Timestamp       string    `json:"timestamp"`
}

// HistoryResponse lists chat history entries.
type HistoryResponse struct {
	Success bool                     `json:"success"`
	History []*storage.HistoryRecord `json:"history"`
	Total   int                      `json:"total"`
}

// ClearHistoryResponse reports a history reset.
type ClearHistoryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// StatisticsResponse wraps usage statistics.
type StatisticsResponse struct {
	Success    bool               `json:"success"`
	Statistics service.Statistics `json:"statistics"`
}

// RetrieveRequest is the payload of the retrieval debug endpoint.
type RetrieveRequest struct {
	Query string `json:"query"`
}

// Chat answers a question.
//
// swagger:route POST /api/chat chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.chatService.ProcessChat(ctx, service.ChatRequest{
		Message:        req.Message,
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process chat request")
		return
	}

	sources := svcResp.Sources
	if sources == nil {
		sources = []string{}
	}
	scores := svcResp.RelevanceScores
	if scores == nil {
		scores = []float64{}
	}
	writeJSON(ctx, w, http.StatusOK, ChatResponse{
		Success:         true,
		Response:        svcResp.Answer,
		Sources:         sources,
		RelevanceScores: scores,
		ChunksFound:     svcResp.ChunksFound,
		SearchQuality:   svcResp.SearchQuality,
		Topic:           svcResp.Topic,
		ConversationID:  svcResp.ConversationID,
		Timestamp:       svcResp.Timestamp.Format(time.RFC3339),
	})
}

// History lists chat history, optionally filtered by ?userId= and bounded by ?limit=.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	records, err := h.chatService.History(ctx, r.URL.Query().Get("userId"), limit)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list history")
		return
	}
	if records == nil {
		records = []*storage.HistoryRecord{}
	}
	writeJSON(ctx, w, http.StatusOK, HistoryResponse{Success: true, History: records, Total: len(records)})
}

// ClearHistory deletes the whole chat history.
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.chatService.ClearHistory(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to clear history")
		return
	}
	writeJSON(ctx, w, http.StatusOK, ClearHistoryResponse{Success: true, Message: "History cleared", Deleted: n})
}

// Statistics reports usage statistics.
func (h *ChatHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.chatService.Statistics(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute statistics")
		return
	}
	if stats.TopTopics == nil {
		stats.TopTopics = []storage.TopicCount{}
	}
	writeJSON(ctx, w, http.StatusOK, StatisticsResponse{Success: true, Statistics: stats})
}

// Retrieve returns the raw retrieval result for a query, with every signal score.
func (h *ChatHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.chatService.Retrieve(ctx, req.Query)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to retrieve chunks")
		return
	}
	writeJSON(ctx, w, http.StatusOK, struct {
		Success bool `json:"success"`
		*rag.Result
	}{Success: true, Result: result})
}
