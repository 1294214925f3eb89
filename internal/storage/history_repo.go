package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_history_store.go -package=mocks docqa/internal/storage HistoryStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit is the number of entries returned when no limit is given.
const DefaultHistoryLimit = 50

// HistoryStore defines the interface for chat history operations.
type HistoryStore interface {
	// Insert stores a history entry. An empty ID is replaced with a new UUID.
	Insert(ctx context.Context, rec *HistoryRecord) error
	// List returns the most recent entries, oldest first. An empty userID matches every user.
	List(ctx context.Context, userID string, limit int) ([]*HistoryRecord, error)
	// Clear deletes every entry and returns how many were removed.
	Clear(ctx context.Context) (int64, error)
	// Stats aggregates the stored history.
	Stats(ctx context.Context, topTopics int) (HistoryStats, error)
}

// HistoryRepo provides methods for chat history operations.
// It implements the HistoryStore interface.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo creates a new HistoryRepo.
func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Insert stores a history entry.
func (r *HistoryRepo) Insert(ctx context.Context, rec *HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Sources == nil {
		rec.Sources = []string{}
	}

	sources, err := json.Marshal(rec.Sources)
	if err != nil {
		return fmt.Errorf("failed to encode sources: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO chat_history (id, user_id, conversation_id, question, answer, sources, chunks_found, search_quality, topic, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.ConversationID, rec.Question, rec.Answer, string(sources),
		rec.ChunksFound, rec.SearchQuality, rec.Topic, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// List returns up to limit of the most recent entries in chronological order.
// A limit of zero or less uses DefaultHistoryLimit.
func (r *HistoryRepo) List(ctx context.Context, userID string, limit int) ([]*HistoryRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `SELECT id, user_id, conversation_id, question, answer, sources, chunks_found, search_quality, topic, created_at
		FROM chat_history`
	args := []any{}
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := []*HistoryRecord{}
	for rows.Next() {
		var (
			rec     HistoryRecord
			sources string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ConversationID, &rec.Question, &rec.Answer,
			&sources, &rec.ChunksFound, &rec.SearchQuality, &rec.Topic, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &rec.Sources); err != nil {
			return nil, fmt.Errorf("failed to decode sources: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	slices.Reverse(records)
	return records, nil
}

// Clear deletes every history entry.
func (r *HistoryRepo) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chat_history")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// Stats returns totals and the topTopics most frequent topics.
func (r *HistoryRepo) Stats(ctx context.Context, topTopics int) (HistoryStats, error) {
	stats := HistoryStats{TopTopics: []TopicCount{}}

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT user_id) FROM chat_history",
	).Scan(&stats.TotalQueries, &stats.UniqueUsers)
	if err != nil {
		return HistoryStats{}, fmt.Errorf("failed to query history totals: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT topic, COUNT(*) AS n FROM chat_history
		 WHERE topic != '' GROUP BY topic ORDER BY n DESC, topic LIMIT ?`,
		topTopics,
	)
	if err != nil {
		return HistoryStats{}, fmt.Errorf("failed to query topics: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return HistoryStats{}, fmt.Errorf("failed to scan topic: %w", err)
		}
		stats.TopTopics = append(stats.TopTopics, tc)
	}
	if err := rows.Err(); err != nil {
		return HistoryStats{}, fmt.Errorf("row iteration error: %w", err)
	}
	return stats, nil
}
