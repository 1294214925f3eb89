package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docqa/internal/contextutil"
	"docqa/internal/service"
	"docqa/internal/storage"
)

const (
	uploadField     = "documents"
	maxUploadBytes  = service.MaxUploadFiles*service.MaxFileSize + 1<<20
	multipartMemory = 32 << 20
)

// DocumentHandler handles HTTP requests for document management and debugging.
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// DocumentResponse describes an uploaded document.
type DocumentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SizeBytes   int64  `json:"sizeBytes"`
	Extension   string `json:"extension"`
	UploadDate  string `json:"uploadDate"`
	ChunksCount int    `json:"chunksCount"`
	TextLength  int    `json:"textLength"`
}

// DocumentListResponse lists documents.
type DocumentListResponse struct {
	Success   bool               `json:"success"`
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
}

// UploadSummary counts upload outcomes.
type UploadSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Errors  int `json:"errors"`
}

// UploadResponse reports the outcome of every uploaded file.
type UploadResponse struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message"`
	Files        []service.FileResult `json:"files"`
	TotalVectors int                  `json:"totalVectors"`
	Summary      UploadSummary        `json:"summary"`
}

// RemoveResponse reports a document removal.
type RemoveResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	VectorsDeleted int    `json:"vectorsDeleted"`
}

func toDocumentResponse(doc *storage.DocumentRecord) DocumentResponse {
	return DocumentResponse{
		ID:          doc.ID,
		Name:        doc.OriginalName,
		SizeBytes:   doc.SizeBytes,
		Extension:   doc.Extension,
		UploadDate:  doc.UploadedAt.UTC().Format(time.RFC3339),
		ChunksCount: doc.ChunkCount,
		TextLength:  doc.TextLength,
	}
}

// Upload ingests the files of the multipart field "documents".
//
// swagger:route POST /api/documents/upload uploadDocuments
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WarnContext(ctx, "upload body too large", "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File[uploadField]
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read uploaded file", "file", fh.Filename, "error", err)
			writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		files = append(files, service.UploadFile{Name: fh.Filename, Data: data})
	}

	res, err := h.documentService.Upload(ctx, files)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process upload")
		return
	}

	writeJSON(ctx, w, http.StatusOK, UploadResponse{
		Success:      res.Succeeded > 0,
		Message:      fmt.Sprintf("%d succeeded, %d failed", res.Succeeded, res.Failed),
		Files:        res.Files,
		TotalVectors: res.TotalVectors,
		Summary:      UploadSummary{Total: len(res.Files), Success: res.Succeeded, Errors: res.Failed},
	})
}

// readPart reads at most one byte past the size limit so the service can reject oversized files.
func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return io.ReadAll(io.LimitReader(f, service.MaxFileSize+1))
}

// List returns every document.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.documentService.List(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list documents")
		return
	}

	out := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		out[i] = toDocumentResponse(doc)
	}
	writeJSON(ctx, w, http.StatusOK, DocumentListResponse{Success: true, Documents: out, Total: len(out)})
}

// Delete removes the document named by the {id} path parameter.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := h.documentService.Remove(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to delete document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, RemoveResponse{Success: true, Message: "Document deleted", VectorsDeleted: res.VectorsDeleted})
}

// Download sends the stored file of the document named by {filename}.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dl, err := h.documentService.Download(ctx, chi.URLParam(r, "filename"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to download document")
		return
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "sending document", "document_name", dl.Name)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	http.ServeFile(w, r, dl.Path)
}

// DebugChunks lists the indexed chunks of {id}, filtered by ?search=.
func (h *DocumentHandler) DebugChunks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.documentService.DebugChunks(ctx, chi.URLParam(r, "id"), r.URL.Query().Get("search"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to inspect chunks")
		return
	}
	if out.Chunks == nil {
		out.Chunks = []service.ChunkPreview{}
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// DebugText shows the extracted text of {id}, locating ?search= when given.
func (h *DocumentHandler) DebugText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.documentService.DebugText(ctx, chi.URLParam(r, "id"), r.URL.Query().Get("search"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to inspect text")
		return
	}
	writeJSON(ctx, w, http.StatusOK, out)
}
