package agents

import "github.com/google/uuid"

// AgentEvent notifies subscribers about one stage's progress
type AgentEvent struct {
	AgentName string `json:"agent_name"`
	Status    string `json:"status"`
	Reasoning string `json:"reasoning,omitempty"`
	Progress  int    `json:"progress"`
}

// Broadcaster pushes workflow progress to case subscribers. Implementations
// must be fire-and-forget: a failed broadcast never fails the workflow.
type Broadcaster interface {
	BroadcastAgentStatus(caseID uuid.UUID, event AgentEvent)
	BroadcastWorkflowState(caseID uuid.UUID, state WorkflowState)
}

// NopBroadcaster discards all events
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastAgentStatus(uuid.UUID, AgentEvent)      {}
func (NopBroadcaster) BroadcastWorkflowState(uuid.UUID, WorkflowState) {}
