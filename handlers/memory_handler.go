package handlers

import (
	"errors"
	"net/http"
	"strings"

	"caseassist-backend/memory"
	"caseassist-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MemoryHandler handles HTTP requests for memory blocks
type MemoryHandler struct {
	store *memory.Store
}

func NewMemoryHandler(store *memory.Store) *MemoryHandler {
	return &MemoryHandler{store: store}
}

type CreateBlockRequest struct {
	SessionID string               `json:"session_id" binding:"required"`
	BlockType string               `json:"block_type" binding:"required"`
	Content   string               `json:"content" binding:"required"`
	Metadata  models.BlockMetadata `json:"metadata"`
}

// CreateBlock handles POST /api/memory/blocks
func (h *MemoryHandler) CreateBlock(c *gin.Context) {
	var req CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_SESSION_ID", "Invalid session_id format")
		return
	}
	if !models.IsValidBlockType(req.BlockType) {
		respondError(c, http.StatusBadRequest, "INVALID_BLOCK_TYPE", "Unknown block type")
		return
	}

	block, err := h.store.CreateBlock(c.Request.Context(), sessionID, models.BlockType(req.BlockType), req.Content, req.Metadata)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "CREATE_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusCreated, block)
}

// GetBlock handles GET /api/memory/blocks/:id
func (h *MemoryHandler) GetBlock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid block ID format")
		return
	}

	block, err := h.store.GetBlock(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Memory block not found")
		return
	}
	respondData(c, http.StatusOK, block)
}

// ListSessionBlocks handles GET /api/sessions/:id/blocks?types=fact,evidence
func (h *MemoryHandler) ListSessionBlocks(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID format")
		return
	}

	blockTypes, ok := parseBlockTypes(c.Query("types"))
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_BLOCK_TYPE", "Unknown block type in types filter")
		return
	}

	blocks, err := h.store.SessionBlocks(c.Request.Context(), sessionID, blockTypes)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, blocks)
}

// GetCaseContext handles GET /api/cases/:id/context?types=fact,evidence&limit=N
func (h *MemoryHandler) GetCaseContext(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	blockTypes, ok := parseBlockTypes(c.Query("types"))
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_BLOCK_TYPE", "Unknown block type in types filter")
		return
	}
	limit := intQuery(c, "limit", 50)

	blocks, err := h.store.CaseContext(c.Request.Context(), caseID, blockTypes, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "CONTEXT_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"blocks":    blocks,
		"formatted": memory.FormatContext(blocks),
	})
}

type UpdateBlockRequest struct {
	Content  string               `json:"content" binding:"required"`
	Metadata models.BlockMetadata `json:"metadata"`
}

// UpdateBlock handles PUT /api/memory/blocks/:id
func (h *MemoryHandler) UpdateBlock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid block ID format")
		return
	}

	var req UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	block, err := h.store.UpdateBlock(c.Request.Context(), id, req.Content, req.Metadata)
	if err != nil {
		if errors.Is(err, memory.ErrBlockNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Memory block not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, block)
}

// DeleteBlock handles DELETE /api/memory/blocks/:id
func (h *MemoryHandler) DeleteBlock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid block ID format")
		return
	}

	deleted, err := h.store.DeleteBlock(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DELETE_FAILED", err.Error())
		return
	}
	if !deleted {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Memory block not found")
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

type LinkBlocksRequest struct {
	RelatedIDs []string `json:"related_ids" binding:"required"`
}

// LinkBlocks handles POST /api/memory/blocks/:id/links
func (h *MemoryHandler) LinkBlocks(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid block ID format")
		return
	}

	var req LinkBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	relatedIDs := make([]uuid.UUID, 0, len(req.RelatedIDs))
	for _, raw := range req.RelatedIDs {
		relID, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_RELATED_ID", "Invalid related block ID format")
			return
		}
		relatedIDs = append(relatedIDs, relID)
	}

	block, err := h.store.LinkBlocks(c.Request.Context(), id, relatedIDs)
	if err != nil {
		if errors.Is(err, memory.ErrBlockNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Memory block not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "LINK_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, block)
}

// GetRelatedBlocks handles GET /api/memory/blocks/:id/related
func (h *MemoryHandler) GetRelatedBlocks(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid block ID format")
		return
	}

	blocks, err := h.store.RelatedBlocks(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, memory.ErrBlockNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Memory block not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "RELATED_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, blocks)
}

type SearchMemoryRequest struct {
	Query         string   `json:"query" binding:"required"`
	SessionID     *string  `json:"session_id"`
	CaseID        *string  `json:"case_id"`
	UserID        *string  `json:"user_id"`
	BlockTypes    []string `json:"block_types"`
	Limit         int      `json:"limit"`
	MinSimilarity float64  `json:"min_similarity"`
}

// SearchMemory handles POST /api/memory/search
func (h *MemoryHandler) SearchMemory(c *gin.Context) {
	var req SearchMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	var scope memory.SearchScope
	if req.SessionID != nil {
		id, err := uuid.Parse(*req.SessionID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_SESSION_ID", "Invalid session_id format")
			return
		}
		scope.SessionID = &id
	}
	if req.CaseID != nil {
		id, err := uuid.Parse(*req.CaseID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_CASE_ID", "Invalid case_id format")
			return
		}
		scope.CaseID = &id
	}
	if req.UserID != nil {
		id, err := uuid.Parse(*req.UserID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user_id format")
			return
		}
		scope.UserID = &id
	}
	if scope.SessionID == nil && scope.CaseID == nil && scope.UserID == nil {
		respondError(c, http.StatusBadRequest, "MISSING_SCOPE", "At least one of session_id, case_id, user_id is required")
		return
	}

	blockTypes := make([]models.BlockType, 0, len(req.BlockTypes))
	for _, raw := range req.BlockTypes {
		if !models.IsValidBlockType(raw) {
			respondError(c, http.StatusBadRequest, "INVALID_BLOCK_TYPE", "Unknown block type in block_types filter")
			return
		}
		blockTypes = append(blockTypes, models.BlockType(raw))
	}

	results, err := h.store.Search(c.Request.Context(), req.Query, scope, memory.SearchOptions{
		BlockTypes:    blockTypes,
		Limit:         req.Limit,
		MinSimilarity: req.MinSimilarity,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SEARCH_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, results)
}

func parseBlockTypes(raw string) ([]models.BlockType, bool) {
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	out := make([]models.BlockType, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !models.IsValidBlockType(p) {
			return nil, false
		}
		out = append(out, models.BlockType(p))
	}
	return out, true
}
