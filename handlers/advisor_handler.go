package handlers

import (
	"errors"
	"net/http"

	"caseassist-backend/advisor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdvisorHandler handles HTTP requests for the conversational case advisor
type AdvisorHandler struct {
	advisor *advisor.Advisor
}

func NewAdvisorHandler(a *advisor.Advisor) *AdvisorHandler {
	return &AdvisorHandler{advisor: a}
}

type AdvisorMessageRequest struct {
	Message        string `json:"message" binding:"required"`
	IncludeContext *bool  `json:"include_context"`
}

// PostMessage handles POST /api/cases/:id/advisor/message
func (h *AdvisorHandler) PostMessage(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	var req AdvisorMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	includeContext := req.IncludeContext == nil || *req.IncludeContext

	msg, err := h.advisor.Respond(c.Request.Context(), caseID, req.Message, includeContext)
	if err != nil {
		if errors.Is(err, advisor.ErrEmptyMessage) {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ADVISOR_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, msg)
}

// GetHistory handles GET /api/cases/:id/advisor/history
func (h *AdvisorHandler) GetHistory(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	limit := intQuery(c, "limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}
	offset := intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	messages, err := h.advisor.History(c.Request.Context(), caseID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "HISTORY_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, messages)
}

// GetSuggestions handles GET /api/cases/:id/advisor/suggestions
func (h *AdvisorHandler) GetSuggestions(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	limit := intQuery(c, "limit", 5)
	if limit < 1 || limit > 10 {
		limit = 5
	}

	questions, err := h.advisor.SuggestedQuestions(c.Request.Context(), caseID, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SUGGESTIONS_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, questions)
}

// ClearHistory handles DELETE /api/cases/:id/advisor/history
func (h *AdvisorHandler) ClearHistory(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	deleted, err := h.advisor.ClearHistory(c.Request.Context(), caseID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DELETE_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": deleted})
}
