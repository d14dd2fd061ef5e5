package handlers

import (
	"net/http"
	"strconv"

	"caseassist-backend/memory"
	"caseassist-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler handles HTTP requests for case sessions
type SessionHandler struct {
	sessions *memory.SessionManager
}

func NewSessionHandler(sessions *memory.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// GetActiveSession handles GET /api/cases/:id/sessions/active
// It returns the active session for the case, creating one if none exists.
func (h *SessionHandler) GetActiveSession(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	session, err := h.sessions.GetOrCreate(c.Request.Context(), caseID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SESSION_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, session)
}

// ListSessions handles GET /api/cases/:id/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	sessions, err := h.sessions.List(c.Request.Context(), caseID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, sessions)
}

type UpdateSessionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateSessionStatus handles PATCH /api/sessions/:id/status
func (h *SessionHandler) UpdateSessionStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID format")
		return
	}

	var req UpdateSessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	status := models.SessionStatus(req.Status)
	switch status {
	case models.SessionStatusActive, models.SessionStatusCompleted, models.SessionStatusArchived:
	default:
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown session status")
		return
	}

	if err := h.sessions.SetStatus(c.Request.Context(), id, status); err != nil {
		respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, gin.H{"updated": true})
}

// GetSessionSummary handles GET /api/sessions/:id/summary
func (h *SessionHandler) GetSessionSummary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID format")
		return
	}

	summary, err := h.sessions.Summary(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Session not found")
		return
	}
	respondData(c, http.StatusOK, summary)
}

// CleanupSessions handles POST /api/cases/:id/sessions/cleanup?keep=N
func (h *SessionHandler) CleanupSessions(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	keep := 3
	if raw := c.Query("keep"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "INVALID_KEEP", "keep must be a non-negative integer")
			return
		}
		keep = n
	}

	archived, err := h.sessions.CleanupOld(c.Request.Context(), caseID, keep)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "CLEANUP_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, gin.H{"archived": archived})
}
