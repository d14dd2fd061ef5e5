package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseStatus represents the status of a case
type CaseStatus string

const (
	CaseStatusActive    CaseStatus = "active"
	CaseStatusCompleted CaseStatus = "completed"
	CaseStatusArchived  CaseStatus = "archived"
)

// DisputeType categorizes the kind of conciliation court dispute
type DisputeType string

const (
	DisputeContract       DisputeType = "contract"
	DisputePropertyDamage DisputeType = "property_damage"
	DisputeDebtCollection DisputeType = "debt_collection"
	DisputeLandlordTenant DisputeType = "landlord_tenant"
	DisputeConsumer       DisputeType = "consumer"
	DisputePersonalInjury DisputeType = "personal_injury"
	DisputeOther          DisputeType = "other"
)

// IsValidDisputeType reports whether s names a known dispute type
func IsValidDisputeType(s string) bool {
	switch DisputeType(s) {
	case DisputeContract, DisputePropertyDamage, DisputeDebtCollection,
		DisputeLandlordTenant, DisputeConsumer, DisputePersonalInjury, DisputeOther:
		return true
	}
	return false
}

// Case represents a legal case entity. It is the ownership anchor for
// sessions, memory blocks, documents, and agent runs.
type Case struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"user_id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	DisputeType      DisputeType `json:"dispute_type"`
	Status           CaseStatus  `json:"status"`
	GeneratedContent *string     `json:"generated_content,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
}
