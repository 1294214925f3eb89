package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"docqa/internal/contextutil"
	"docqa/internal/extract"
	"docqa/internal/indexer"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// Upload limits.
const (
	MaxUploadFiles = 10
	MaxFileSize    = 10 << 20
	MinTextLength  = 50
)

// Debug view sizes, in characters.
const (
	chunkPreviewSize = 200
	matchPreviewSize = 500
	fullTextSize     = 5000
	searchContext    = 300
)

// Upload outcomes reported per file.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Ingestor indexes and removes document text.
type Ingestor interface {
	IngestDocument(ctx context.Context, documentID, documentName, rawText string) (indexer.IngestResult, error)
	RemoveDocument(ctx context.Context, documentID string) (int, error)
	DocumentChunks(documentID string) []vectorstore.Chunk
	Len() int
}

// TextExtractor converts an uploaded file to text.
type TextExtractor interface {
	Extract(name string, data []byte) (string, error)
}

// UploadFile is one file of an upload request.
type UploadFile struct {
	Name string
	Data []byte
}

// FileResult is the outcome of processing one uploaded file.
type FileResult struct {
	Name       string `json:"name"`
	DocumentID string `json:"documentId,omitempty"`
	Chunks     int    `json:"chunks"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// UploadResult summarizes an upload request.
type UploadResult struct {
	Files        []FileResult `json:"files"`
	Succeeded    int          `json:"succeeded"`
	Failed       int          `json:"failed"`
	TotalVectors int          `json:"totalVectors"`
}

// RemoveResult reports what a document removal deleted.
type RemoveResult struct {
	DocumentID     string `json:"documentId"`
	VectorsDeleted int    `json:"vectorsDeleted"`
}

// Download locates a stored document file.
type Download struct {
	Name string // Original file name
	Path string // Location on disk
}

// CorpusSummary counts documents and indexed chunks.
type CorpusSummary struct {
	Documents int
	Vectors   int
}

// ChunkPreview describes one chunk of a document.
type ChunkPreview struct {
	Index   int    `json:"index"`
	Preview string `json:"preview"`
	Length  int    `json:"length"`
}

// ChunkMatch is a chunk containing the searched term.
type ChunkMatch struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Preview string `json:"preview"`
}

// ChunkDebug lists the indexed chunks of a document.
type ChunkDebug struct {
	DocumentID     string         `json:"documentId"`
	TotalChunks    int            `json:"totalChunks"`
	Chunks         []ChunkPreview `json:"chunks"`
	SearchTerm     string         `json:"searchTerm,omitempty"`
	MatchingChunks int            `json:"matchingChunks"`
	Matches        []ChunkMatch   `json:"matches,omitempty"`
}

// TextDebug shows the text extracted from a stored document.
type TextDebug struct {
	DocumentName string `json:"documentName"`
	TextLength   int    `json:"textLength"`
	FullText     string `json:"fullText"`
	SearchTerm   string `json:"searchTerm,omitempty"`
	Found        bool   `json:"found"`
	Preview      string `json:"preview,omitempty"`
	Position     int    `json:"position"`
}

// DocumentService manages uploaded documents and their index entries.
type DocumentService interface {
	// Upload stores, extracts and indexes files. Each file succeeds or fails on its own.
	Upload(ctx context.Context, files []UploadFile) (UploadResult, error)
	// List returns every document, most recent first.
	List(ctx context.Context) ([]*storage.DocumentRecord, error)
	// Remove deletes a document, its chunks and its stored file.
	Remove(ctx context.Context, id string) (RemoveResult, error)
	// Download locates the stored file of a document by its original name.
	Download(ctx context.Context, name string) (Download, error)
	// DebugChunks lists a document's chunks, optionally filtered by a search term.
	DebugChunks(ctx context.Context, id, search string) (ChunkDebug, error)
	// DebugText re-extracts a document's text, optionally locating a search term.
	DebugText(ctx context.Context, id, search string) (TextDebug, error)
	// Summary counts documents and indexed chunks.
	Summary(ctx context.Context) (CorpusSummary, error)
}

type documentService struct {
	documents storage.DocumentStore
	ingestor  Ingestor
	extractor TextExtractor
	uploadDir string
	now       func() time.Time
}

// NewDocumentService creates a new DocumentService storing files under uploadDir.
func NewDocumentService(documents storage.DocumentStore, ingestor Ingestor, extractor TextExtractor, uploadDir string) DocumentService {
	return &documentService{
		documents: documents,
		ingestor:  ingestor,
		extractor: extractor,
		uploadDir: uploadDir,
		now:       time.Now,
	}
}

// Upload validates the whole request before processing any file.
func (s *documentService) Upload(ctx context.Context, files []UploadFile) (UploadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(files) == 0 {
		return UploadResult{}, &ValidationError{Field: "documents", Message: "at least one file is required"}
	}
	if len(files) > MaxUploadFiles {
		return UploadResult{}, &ValidationError{Field: "documents", Message: fmt.Sprintf("at most %d files per upload", MaxUploadFiles)}
	}
	for _, f := range files {
		if baseName(f.Name) == "" {
			return UploadResult{}, &ValidationError{Field: "documents", Message: "file name is required"}
		}
		if !extract.Supported(f.Name) {
			return UploadResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Name)
		}
		if len(f.Data) > MaxFileSize {
			return UploadResult{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, f.Name, MaxFileSize)
		}
	}

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return UploadResult{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	result := UploadResult{Files: make([]FileResult, 0, len(files))}
	for _, f := range files {
		fr := s.processFile(ctx, f)
		if fr.Status == StatusSuccess {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Files = append(result.Files, fr)
	}
	result.TotalVectors = s.ingestor.Len()

	logger.InfoContext(ctx, "upload processed", "files", len(files), "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

func (s *documentService) processFile(ctx context.Context, f UploadFile) FileResult {
	logger := contextutil.LoggerFromContext(ctx)
	name := baseName(f.Name)
	fail := func(msg string, err error) FileResult {
		logger.WarnContext(ctx, "document upload failed", "document_name", name, "reason", msg, "error", err)
		return FileResult{Name: name, Status: StatusError, Message: msg}
	}

	text, err := s.extractor.Extract(name, f.Data)
	if err != nil {
		return fail("text extraction failed", err)
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < MinTextLength {
		if n == 0 {
			return fail("no extractable text", nil)
		}
		return fail(fmt.Sprintf("text too short (%d characters)", n), nil)
	}

	doc := &storage.DocumentRecord{
		ID:           uuid.New().String(),
		OriginalName: name,
		StoredName:   fmt.Sprintf("%d-%s", s.now().UnixNano(), name),
		Extension:    extract.Ext(name),
		SizeBytes:    int64(len(f.Data)),
	}
	path := filepath.Join(s.uploadDir, doc.StoredName)
	if err := os.WriteFile(path, f.Data, 0644); err != nil {
		return fail("failed to store file", err)
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		s.removeFile(ctx, path)
		return fail("failed to record document", err)
	}

	res, err := s.ingestor.IngestDocument(ctx, doc.ID, name, text)
	if err != nil {
		s.rollback(ctx, doc.ID, path, false)
		if errors.Is(err, indexer.ErrEmptyChunkResult) {
			return fail("no chunks could be created", err)
		}
		return fail("indexing failed", err)
	}
	if err := s.documents.UpdateIngest(ctx, doc.ID, res.TextLength, res.ChunkCount); err != nil {
		s.rollback(ctx, doc.ID, path, true)
		return fail("failed to record document", err)
	}

	logger.InfoContext(ctx, "document indexed", "document_id", doc.ID, "document_name", name, "chunk_count", res.ChunkCount)
	return FileResult{
		Name:       name,
		DocumentID: doc.ID,
		Chunks:     res.ChunkCount,
		Status:     StatusSuccess,
		Message:    fmt.Sprintf("%d chunks created", res.ChunkCount),
	}
}

// rollback undoes a partially processed upload.
func (s *documentService) rollback(ctx context.Context, id, path string, indexed bool) {
	logger := contextutil.LoggerFromContext(ctx)
	if indexed {
		if _, err := s.ingestor.RemoveDocument(ctx, id); err != nil {
			logger.ErrorContext(ctx, "failed to remove indexed chunks", "document_id", id, "error", err)
		}
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		logger.ErrorContext(ctx, "failed to delete document record", "document_id", id, "error", err)
	}
	s.removeFile(ctx, path)
}

func (s *documentService) removeFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to remove stored file", "path", path, "error", err)
	}
}

// List returns every document.
func (s *documentService) List(ctx context.Context) ([]*storage.DocumentRecord, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}
	return docs, nil
}

// Remove deletes the chunks, then the record, then the stored file.
func (s *documentService) Remove(ctx context.Context, id string) (RemoveResult, error) {
	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return RemoveResult{}, classifyError(err, "failed to get document")
	}

	removed, err := s.ingestor.RemoveDocument(ctx, id)
	if err != nil {
		return RemoveResult{}, WrapError(err, "failed to remove document chunks")
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return RemoveResult{}, classifyError(err, "failed to delete document")
	}
	s.removeFile(ctx, filepath.Join(s.uploadDir, doc.StoredName))

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "document removed", "document_id", id, "chunk_count", removed)
	return RemoveResult{DocumentID: id, VectorsDeleted: removed}, nil
}

// Download rejects names that could escape the upload directory.
func (s *documentService) Download(ctx context.Context, name string) (Download, error) {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return Download{}, &ValidationError{Field: "filename", Message: "invalid file name"}
	}

	doc, err := s.documents.GetByName(ctx, name)
	if err != nil {
		return Download{}, classifyError(err, "failed to find document")
	}

	path := filepath.Join(s.uploadDir, doc.StoredName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Download{}, fmt.Errorf("stored file for %s: %w", name, ErrNotFound)
		}
		return Download{}, WrapError(err, "failed to access stored file")
	}
	return Download{Name: doc.OriginalName, Path: path}, nil
}

// DebugChunks lists a document's indexed chunks.
func (s *documentService) DebugChunks(ctx context.Context, id, search string) (ChunkDebug, error) {
	if _, err := s.documents.Get(ctx, id); err != nil {
		return ChunkDebug{}, classifyError(err, "failed to get document")
	}

	chunks := s.ingestor.DocumentChunks(id)
	out := ChunkDebug{
		DocumentID:  id,
		TotalChunks: len(chunks),
		Chunks:      make([]ChunkPreview, len(chunks)),
	}
	for i, c := range chunks {
		out.Chunks[i] = ChunkPreview{
			Index:   c.ChunkIndex,
			Preview: truncate(c.Text, chunkPreviewSize) + "...",
			Length:  utf8.RuneCountInString(c.Text),
		}
	}

	search = strings.TrimSpace(search)
	if search == "" {
		return out, nil
	}
	out.SearchTerm = search
	term := []rune(search)
	for _, c := range chunks {
		if indexFold([]rune(c.Text), term) < 0 {
			continue
		}
		out.Matches = append(out.Matches, ChunkMatch{
			Index:   c.ChunkIndex,
			Text:    c.Text,
			Preview: truncate(c.Text, matchPreviewSize),
		})
	}
	out.MatchingChunks = len(out.Matches)
	return out, nil
}

// DebugText re-extracts a document's text from its stored file.
func (s *documentService) DebugText(ctx context.Context, id, search string) (TextDebug, error) {
	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return TextDebug{}, classifyError(err, "failed to get document")
	}

	data, err := os.ReadFile(filepath.Join(s.uploadDir, doc.StoredName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return TextDebug{}, fmt.Errorf("stored file for %s: %w", doc.OriginalName, ErrNotFound)
		}
		return TextDebug{}, WrapError(err, "failed to read stored file")
	}
	text, err := s.extractor.Extract(doc.OriginalName, data)
	if err != nil {
		return TextDebug{}, classifyError(err, "failed to extract text")
	}

	runes := []rune(text)
	out := TextDebug{
		DocumentName: doc.OriginalName,
		TextLength:   len(runes),
		FullText:     truncate(text, fullTextSize),
		Position:     -1,
	}

	search = strings.TrimSpace(search)
	if search == "" {
		return out, nil
	}
	out.SearchTerm = search
	if pos := indexFold(runes, []rune(search)); pos >= 0 {
		out.Found = true
		out.Position = pos
		out.Preview = string(runes[max(0, pos-searchContext):min(len(runes), pos+searchContext)])
	}
	return out, nil
}

// Summary counts documents and indexed chunks.
func (s *documentService) Summary(ctx context.Context) (CorpusSummary, error) {
	n, err := s.documents.Count(ctx)
	if err != nil {
		return CorpusSummary{}, WrapError(err, "failed to count documents")
	}
	return CorpusSummary{Documents: n, Vectors: s.ingestor.Len()}, nil
}

// baseName strips any client-supplied directory from an upload name.
func baseName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// indexFold returns the rune offset of the first case-insensitive occurrence of sub in s, or -1.
func indexFold(s, sub []rune) int {
	if len(sub) == 0 {
		return 0
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j, r := range sub {
			if unicode.ToLower(s[i+j]) != unicode.ToLower(r) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
