package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies who authored a conversation message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// ConversationMessage is one turn of the advisor chat for a case.
// ContextUsed records which block types informed an assistant reply.
type ConversationMessage struct {
	ID          uuid.UUID   `json:"id"`
	CaseID      uuid.UUID   `json:"case_id"`
	Role        MessageRole `json:"role"`
	Content     string      `json:"content"`
	ContextUsed []string    `json:"context_used,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
