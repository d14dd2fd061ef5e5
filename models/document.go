package models

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an uploaded case document. Text extraction happens
// upstream; extracted_text is stored as provided and fed to the document
// analysis agent.
type Document struct {
	ID            uuid.UUID `json:"id"`
	CaseID        uuid.UUID `json:"case_id"`
	Filename      string    `json:"filename"`
	MimeType      string    `json:"mime_type"`
	Size          int64     `json:"size"`
	StoragePath   string    `json:"storage_path"`
	ExtractedText *string   `json:"extracted_text,omitempty"`
	Summary       *string   `json:"summary,omitempty"`
	Processed     bool      `json:"processed"`
	CreatedAt     time.Time `json:"created_at"`
}
