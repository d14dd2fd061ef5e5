package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle status of a case session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusArchived  SessionStatus = "archived"
)

// Session represents a numbered, ordered scope within a case. Memory blocks
// belong to exactly one session; session_number is unique per case.
type Session struct {
	ID            uuid.UUID     `json:"id"`
	CaseID        uuid.UUID     `json:"case_id"`
	SessionNumber int           `json:"session_number"`
	Status        SessionStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// SessionSummary bundles a session with per-type memory block counts
type SessionSummary struct {
	Session     *Session       `json:"session"`
	BlockCounts map[string]int `json:"memory_block_counts"`
	TotalBlocks int            `json:"total_blocks"`
}
