package handlers

import (
	"context"
	"errors"
	"net/http"

	"caseassist-backend/agents"
	"caseassist-backend/realtime"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkflowHandler handles HTTP requests for agent workflow control and the
// realtime progress WebSocket.
type WorkflowHandler struct {
	orchestrator *agents.Orchestrator
	runs         agents.RunStore
	hub          *realtime.Hub
	logger       *zap.Logger
}

func NewWorkflowHandler(orchestrator *agents.Orchestrator, runs agents.RunStore, hub *realtime.Hub, logger *zap.Logger) *WorkflowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowHandler{orchestrator: orchestrator, runs: runs, hub: hub, logger: logger}
}

type StartWorkflowRequest struct {
	ForceRestart bool `json:"force_restart"`
}

// StartWorkflow handles POST /api/cases/:id/workflow/start. The pipeline
// runs in the background; progress is streamed over the case WebSocket.
func (h *WorkflowHandler) StartWorkflow(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	var req StartWorkflowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	state, err := h.orchestrator.State(c.Request.Context(), caseID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "STATE_FAILED", err.Error())
		return
	}
	if state.WorkflowStatus == agents.WorkflowRunning {
		respondError(c, http.StatusConflict, "WORKFLOW_RUNNING", "A workflow is already running for this case")
		return
	}

	go func() {
		if _, err := h.orchestrator.ExecuteWorkflow(context.Background(), caseID, req.ForceRestart); err != nil {
			h.logger.Error("workflow execution failed",
				zap.String("case_id", caseID.String()),
				zap.Error(err))
		}
	}()

	respondData(c, http.StatusAccepted, gin.H{
		"case_id": caseID,
		"status":  "started",
	})
}

// RunSingleAgent handles POST /api/cases/:id/workflow/agents/:agent
func (h *WorkflowHandler) RunSingleAgent(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	state, err := h.orchestrator.ExecuteSingleAgent(c.Request.Context(), caseID, c.Param("agent"))
	if err != nil {
		if errors.Is(err, agents.ErrUnknownAgent) {
			respondError(c, http.StatusNotFound, "UNKNOWN_AGENT", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "AGENT_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, state)
}

// GetWorkflowStatus handles GET /api/cases/:id/workflow/status
func (h *WorkflowHandler) GetWorkflowStatus(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	state, err := h.orchestrator.State(c.Request.Context(), caseID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "STATE_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, state)
}

// ListRuns handles GET /api/cases/:id/workflow/runs
func (h *WorkflowHandler) ListRuns(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	runs, err := h.runs.ListByCase(c.Request.Context(), caseID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, runs)
}

// SubscribeWorkflow handles GET /api/cases/:id/workflow/ws. It upgrades the
// connection and streams agent status and workflow state messages until the
// client disconnects.
func (h *WorkflowHandler) SubscribeWorkflow(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed",
			zap.String("case_id", caseID.String()),
			zap.Error(err))
		return
	}

	unsubscribe := h.hub.Subscribe(caseID, conn)
	defer unsubscribe()

	// Drain incoming frames so close handshakes are noticed; the stream
	// is server-to-client only.
	ctx := c.Request.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}
