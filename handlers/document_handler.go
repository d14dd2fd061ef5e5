package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"caseassist-backend/models"
	"caseassist-backend/repository"
	"caseassist-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentHandler handles HTTP requests for case document upload, download
// and text extraction results.
type DocumentHandler struct {
	documents        *repository.DocumentRepository
	cases            *repository.CaseRepository
	store            storage.Store
	logger           *zap.Logger
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

func NewDocumentHandler(documents *repository.DocumentRepository, cases *repository.CaseRepository, store storage.Store, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{
		documents:   documents,
		cases:       cases,
		store:       store,
		logger:      logger,
		maxFileSize: 10 * 1024 * 1024, // 10MB
		allowedMimeTypes: map[string]bool{
			"application/pdf":    true,
			"text/plain":         true,
			"application/msword": true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
			"image/jpeg": true,
			"image/png":  true,
		},
	}
}

// UploadDocument handles POST /api/cases/:id/documents (multipart form)
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	if _, err := h.cases.GetByID(c.Request.Context(), caseID); err != nil {
		respondError(c, http.StatusNotFound, "CASE_NOT_FOUND", "Case not found")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}
	if fileHeader.Size > h.maxFileSize {
		respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mimeTypeFromName(fileHeader.Filename)
	}
	if !h.allowedMimeTypes[mimeType] && !strings.HasPrefix(mimeType, "text/") {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE",
			"File type not allowed. Allowed types: PDF, TXT, DOC, DOCX, JPG, PNG")
		return
	}

	documentID := uuid.New()

	storagePath, err := h.store.Save(c.Request.Context(), documentID, fileHeader.Filename, file)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED",
			fmt.Sprintf("Failed to store document: %v", err))
		return
	}

	doc := &models.Document{
		ID:          documentID,
		CaseID:      caseID,
		Filename:    fileHeader.Filename,
		MimeType:    mimeType,
		Size:        fileHeader.Size,
		StoragePath: storagePath,
	}
	if err := h.documents.Create(c.Request.Context(), doc); err != nil {
		// Best-effort cleanup of the stored blob
		if rmErr := h.store.Remove(c.Request.Context(), storagePath); rmErr != nil {
			h.logger.Warn("failed to remove orphaned document blob",
				zap.String("storage_path", storagePath),
				zap.Error(rmErr))
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR",
			fmt.Sprintf("Failed to save document record: %v", err))
		return
	}

	// Extracted text can be supplied inline for plain-text uploads
	if text := c.PostForm("extracted_text"); text != "" {
		if err := h.documents.SetExtractedText(c.Request.Context(), doc.ID, text); err != nil {
			h.logger.Warn("failed to store extracted text",
				zap.String("document_id", doc.ID.String()),
				zap.Error(err))
		}
	}

	respondData(c, http.StatusCreated, gin.H{
		"id":         doc.ID,
		"case_id":    doc.CaseID,
		"filename":   doc.Filename,
		"mime_type":  doc.MimeType,
		"size":       doc.Size,
		"created_at": doc.CreatedAt,
	})
}

// GetDocument handles GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	doc, err := h.documents.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		return
	}
	respondData(c, http.StatusOK, doc)
}

// DownloadDocument handles GET /api/documents/:id/download
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	doc, err := h.documents.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		return
	}

	reader, err := h.store.Open(c.Request.Context(), doc.StoragePath)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED",
			fmt.Sprintf("Failed to open document: %v", err))
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.DataFromReader(http.StatusOK, doc.Size, doc.MimeType, reader, nil)
}

// ListDocuments handles GET /api/cases/:id/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	docs, err := h.documents.ListByCase(c.Request.Context(), caseID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, docs)
}

type SetExtractedTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// SetExtractedText handles PUT /api/documents/:id/text
func (h *DocumentHandler) SetExtractedText(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	var req SetExtractedTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.documents.SetExtractedText(c.Request.Context(), id, req.Text); err != nil {
		respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, gin.H{"updated": true})
}

// DeleteDocument handles DELETE /api/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	doc, err := h.documents.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		return
	}

	if err := h.store.Remove(c.Request.Context(), doc.StoragePath); err != nil {
		h.logger.Warn("failed to remove document blob",
			zap.String("storage_path", doc.StoragePath),
			zap.Error(err))
	}
	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		respondError(c, http.StatusInternalServerError, "DELETE_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

func mimeTypeFromName(filename string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(strings.ToLower(filename), ".txt"):
		return "text/plain"
	case strings.HasSuffix(strings.ToLower(filename), ".doc"):
		return "application/msword"
	case strings.HasSuffix(strings.ToLower(filename), ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(strings.ToLower(filename), ".jpg"), strings.HasSuffix(strings.ToLower(filename), ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(strings.ToLower(filename), ".png"):
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
