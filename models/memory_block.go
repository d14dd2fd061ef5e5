package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BlockType discriminates the kind of knowledge a memory block holds
type BlockType string

const (
	BlockTypeFact     BlockType = "fact"
	BlockTypeEvidence BlockType = "evidence"
	BlockTypeRule     BlockType = "rule"
	BlockTypeQuestion BlockType = "question"
	BlockTypeStrategy BlockType = "strategy"
)

// BlockTypes lists every valid block type
var BlockTypes = []BlockType{
	BlockTypeFact,
	BlockTypeEvidence,
	BlockTypeRule,
	BlockTypeQuestion,
	BlockTypeStrategy,
}

// IsValidBlockType reports whether s names a known block type
func IsValidBlockType(s string) bool {
	for _, t := range BlockTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// BlockMetadata is the JSONB metadata payload of a memory block. Its shape
// depends on the owning block's type; use ValidateBlockMetadata to normalize
// it before persisting.
type BlockMetadata map[string]interface{}

// Value implements driver.Valuer for JSONB
func (m BlockMetadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(BlockMetadata{})
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *BlockMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(BlockMetadata)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = make(BlockMetadata)
		return nil
	}

	if len(bytes) == 0 {
		*m = make(BlockMetadata)
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// MemoryBlock is the atomic unit of case knowledge: typed content with an
// embedding, scoped to a session. Content is trimmed and non-empty; the
// embedding is derived from content and regenerated on every content update.
type MemoryBlock struct {
	ID        uuid.UUID     `json:"id"`
	SessionID uuid.UUID     `json:"session_id"`
	BlockType BlockType     `json:"block_type"`
	Content   string        `json:"content"`
	Embedding []float64     `json:"-"`
	Metadata  BlockMetadata `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

// RelatedBlockIDs extracts the related_blocks reference list from metadata.
// Entries that are not valid UUID strings are skipped.
func (b *MemoryBlock) RelatedBlockIDs() []uuid.UUID {
	if b.Metadata == nil {
		return nil
	}
	raw, ok := b.Metadata["related_blocks"].([]interface{})
	if !ok {
		return nil
	}
	var ids []uuid.UUID
	for _, r := range raw {
		s, ok := r.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// ScoredBlock pairs a memory block with its similarity to a search query
type ScoredBlock struct {
	Block      *MemoryBlock `json:"block"`
	Similarity float64      `json:"similarity"`
}
