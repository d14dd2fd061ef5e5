package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RuleType represents the kind of legal rule stored in the rules corpus
type RuleType string

const (
	RuleTypeStatute        RuleType = "statute"
	RuleTypeProcedure      RuleType = "procedure"
	RuleTypeCaseLaw        RuleType = "case_law"
	RuleTypeInterpretation RuleType = "interpretation"
)

// RuleMetadataJSON is the JSONB metadata payload of a rule row
type RuleMetadataJSON map[string]interface{}

// Value implements driver.Valuer for JSONB
func (m RuleMetadataJSON) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(RuleMetadataJSON{})
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *RuleMetadataJSON) Scan(value interface{}) error {
	if value == nil {
		*m = make(RuleMetadataJSON)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = make(RuleMetadataJSON)
		return nil
	}

	if len(bytes) == 0 {
		*m = make(RuleMetadataJSON)
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Rule is a case-independent knowledge item: a statute, procedure, case-law
// entry, or interpretation with an embedding for semantic retrieval.
type Rule struct {
	ID        uuid.UUID        `json:"id"`
	RuleType  RuleType         `json:"rule_type"`
	Source    string           `json:"source"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Embedding []float64        `json:"-"`
	Metadata  RuleMetadataJSON `json:"metadata"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ScoredRule pairs a rule with its similarity to a search query
type ScoredRule struct {
	Rule       *Rule   `json:"rule"`
	Similarity float64 `json:"similarity"`
}
