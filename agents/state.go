// Package agents implements the five-stage case workflow: agent execution
// with run logging and timeouts, orchestration with per-stage retries, and
// workflow state derived purely from the append-only run log.
package agents

import (
	"caseassist-backend/models"

	"github.com/google/uuid"
)

// Workflow stage names, in pipeline order
const (
	StageIntake   = "intake"
	StageResearch = "research"
	StageDocument = "document"
	StageStrategy = "strategy"
	StageDrafting = "drafting"
)

// WorkflowStages is the fixed pipeline every case moves through
var WorkflowStages = []string{StageIntake, StageResearch, StageDocument, StageStrategy, StageDrafting}

// Workflow status values
const (
	WorkflowPending   = "pending"
	WorkflowRunning   = "running"
	WorkflowCompleted = "completed"
	WorkflowFailed    = "failed"
)

// WorkflowState is the derived view of a case's pipeline progress. It is
// never stored: the run log is the single source of truth and the state is
// recomputed on every read.
type WorkflowState struct {
	CaseID          uuid.UUID                     `json:"case_id"`
	CurrentAgent    string                        `json:"current_agent,omitempty"`
	CompletedAgents []string                      `json:"completed_agents"`
	AgentResults    map[string]models.AgentResult `json:"agent_results"`
	WorkflowStatus  string                        `json:"workflow_status"`
	Error           string                        `json:"error,omitempty"`
}

// DeriveState reconstructs workflow state from runs ordered oldest to
// newest. Scanning stops at the first running run (workflow is in flight)
// or the first failed run (workflow is dead until restarted); completed
// runs beyond that point are not visited.
func DeriveState(caseID uuid.UUID, runs []models.AgentRun) WorkflowState {
	state := WorkflowState{
		CaseID:          caseID,
		CompletedAgents: []string{},
		AgentResults:    map[string]models.AgentResult{},
		WorkflowStatus:  WorkflowPending,
	}

	for _, run := range runs {
		switch run.Status {
		case models.RunStatusRunning:
			state.CurrentAgent = run.AgentName
			state.WorkflowStatus = WorkflowRunning
			return state
		case models.RunStatusCompleted:
			state.CompletedAgents = append(state.CompletedAgents, run.AgentName)
			if run.Result != nil {
				state.AgentResults[run.AgentName] = run.Result
			}
		case models.RunStatusFailed:
			state.WorkflowStatus = WorkflowFailed
			if run.ErrorMessage != nil && *run.ErrorMessage != "" {
				state.Error = *run.ErrorMessage
			} else {
				state.Error = "Agent failed"
			}
			return state
		}
	}

	if allStagesDone(state.CompletedAgents) {
		state.WorkflowStatus = WorkflowCompleted
	}
	return state
}

func allStagesDone(completed []string) bool {
	done := make(map[string]bool, len(completed))
	for _, name := range completed {
		done[name] = true
	}
	for _, stage := range WorkflowStages {
		if !done[stage] {
			return false
		}
	}
	return true
}
