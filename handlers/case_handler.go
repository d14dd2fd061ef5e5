package handlers

import (
	"net/http"

	"caseassist-backend/models"
	"caseassist-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CaseHandler handles HTTP requests for cases
type CaseHandler struct {
	cases *repository.CaseRepository
}

func NewCaseHandler(cases *repository.CaseRepository) *CaseHandler {
	return &CaseHandler{cases: cases}
}

type CreateCaseRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	DisputeType string `json:"dispute_type"`
}

// CreateCase handles POST /api/cases
func (h *CaseHandler) CreateCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user_id format")
		return
	}

	disputeType := models.DisputeOther
	if req.DisputeType != "" {
		if !models.IsValidDisputeType(req.DisputeType) {
			respondError(c, http.StatusBadRequest, "INVALID_DISPUTE_TYPE", "Unknown dispute type")
			return
		}
		disputeType = models.DisputeType(req.DisputeType)
	}

	kase := &models.Case{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DisputeType: disputeType,
		Status:      models.CaseStatusActive,
	}
	if err := h.cases.Create(c.Request.Context(), kase); err != nil {
		respondError(c, http.StatusInternalServerError, "CREATE_FAILED", err.Error())
		return
	}

	respondData(c, http.StatusCreated, kase)
}

// GetCase handles GET /api/cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	kase, err := h.cases.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Case not found")
		return
	}
	respondData(c, http.StatusOK, kase)
}

// ListCases handles GET /api/cases?user_id=...
func (h *CaseHandler) ListCases(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_USER_ID", "user_id query parameter is required")
		return
	}

	cases, err := h.cases.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, cases)
}

type UpdateCaseStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateCaseStatus handles PATCH /api/cases/:id/status
func (h *CaseHandler) UpdateCaseStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	var req UpdateCaseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	status := models.CaseStatus(req.Status)
	switch status {
	case models.CaseStatusActive, models.CaseStatusCompleted, models.CaseStatusArchived:
	default:
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown case status")
		return
	}

	if err := h.cases.UpdateStatus(c.Request.Context(), id, status); err != nil {
		respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", err.Error())
		return
	}

	kase, err := h.cases.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Case not found")
		return
	}
	respondData(c, http.StatusOK, kase)
}

// GetGeneratedContent handles GET /api/cases/:id/generated
func (h *CaseHandler) GetGeneratedContent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	kase, err := h.cases.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Case not found")
		return
	}
	if kase.GeneratedContent == nil || *kase.GeneratedContent == "" {
		respondError(c, http.StatusNotFound, "NO_CONTENT", "No documents have been generated for this case yet")
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"case_id": kase.ID,
		"content": *kase.GeneratedContent,
	})
}

// DeleteCase handles DELETE /api/cases/:id
func (h *CaseHandler) DeleteCase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	if err := h.cases.Delete(c.Request.Context(), id); err != nil {
		respondError(c, http.StatusInternalServerError, "DELETE_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}
