package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks docqa/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// Create inserts a document. An empty ID is replaced with a new UUID.
	Create(ctx context.Context, doc *DocumentRecord) error
	// Get returns a document by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*DocumentRecord, error)
	// GetByName returns the most recently uploaded document with the given
	// original file name, or ErrNotFound.
	GetByName(ctx context.Context, name string) (*DocumentRecord, error)
	// List returns all documents, most recently uploaded first.
	List(ctx context.Context) ([]*DocumentRecord, error)
	// UpdateIngest records the outcome of ingesting a document.
	UpdateIngest(ctx context.Context, id string, textLength, chunkCount int) error
	// Delete removes a document and, by cascade, its chunks. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
	// Count returns the number of documents.
	Count(ctx context.Context) (int, error)
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = "id, original_name, stored_name, extension, size_bytes, text_length, chunk_count, uploaded_at"

// Create inserts a document. An empty ID is replaced with a new UUID and a
// zero UploadedAt with the current time.
func (r *DocumentRepo) Create(ctx context.Context, doc *DocumentRecord) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO documents ("+documentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		doc.ID, doc.OriginalName, doc.StoredName, doc.Extension, doc.SizeBytes, doc.TextLength, doc.ChunkCount, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Get returns a document by ID.
func (r *DocumentRepo) Get(ctx context.Context, id string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// GetByName returns the most recently uploaded document with the given original name.
func (r *DocumentRepo) GetByName(ctx context.Context, name string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE original_name = ? ORDER BY uploaded_at DESC LIMIT 1", name)
	return scanDocument(row)
}

// List returns all documents, most recently uploaded first.
func (r *DocumentRepo) List(ctx context.Context) ([]*DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY uploaded_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []*DocumentRecord{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// UpdateIngest records the normalized text length and chunk count of a document.
func (r *DocumentRepo) UpdateIngest(ctx context.Context, id string, textLength, chunkCount int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET text_length = ?, chunk_count = ? WHERE id = ?",
		textLength, chunkCount, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a document. Its chunks are removed by the foreign key cascade.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return requireAffected(res)
}

// Count returns the number of documents.
func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := s.Scan(&doc.ID, &doc.OriginalName, &doc.StoredName, &doc.Extension,
		&doc.SizeBytes, &doc.TextLength, &doc.ChunkCount, &doc.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return &doc, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
