package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AgentRunStatus represents the status of one agent execution attempt
type AgentRunStatus string

const (
	RunStatusRunning   AgentRunStatus = "running"
	RunStatusCompleted AgentRunStatus = "completed"
	RunStatusFailed    AgentRunStatus = "failed"
)

// AgentResult is the structured JSON payload an agent produces on success
type AgentResult map[string]interface{}

// Value implements driver.Valuer for JSONB
func (r AgentResult) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *AgentResult) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*r = nil
		return nil
	}

	if len(bytes) == 0 {
		*r = nil
		return nil
	}

	return json.Unmarshal(bytes, r)
}

// AgentRun is one persisted execution attempt of a pipeline stage. The run
// log is append-only: a retry creates a new row, never mutates a terminal
// one. Workflow state is derived from these rows on every read.
type AgentRun struct {
	ID           uuid.UUID      `json:"id"`
	CaseID       uuid.UUID      `json:"case_id"`
	AgentName    string         `json:"agent_name"`
	Status       AgentRunStatus `json:"status"`
	Reasoning    *string        `json:"reasoning,omitempty"`
	Result       AgentResult    `json:"result,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}
