package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBlockMetadataCoercesFactType(t *testing.T) {
	out := ValidateBlockMetadata(BlockTypeFact, BlockMetadata{
		"fact_type":        "bogus",
		"date_occurred":    "2024-01-15",
		"parties_involved": []interface{}{"Alice", "Bob"},
		"confidence_score": 0.9,
		"unknown_key":      "dropped",
	})

	assert.Equal(t, "claim", out["fact_type"])
	assert.Equal(t, "2024-01-15", out["date_occurred"])
	assert.Equal(t, []string{"Alice", "Bob"}, out["parties_involved"])
	assert.Equal(t, 0.9, out["confidence_score"])
	assert.NotContains(t, out, "unknown_key")
}

func TestValidateBlockMetadataKeepsValidFactType(t *testing.T) {
	out := ValidateBlockMetadata(BlockTypeFact, BlockMetadata{"fact_type": "timeline"})
	assert.Equal(t, "timeline", out["fact_type"])
}

func TestValidateBlockMetadataCoercesEvidenceType(t *testing.T) {
	out := ValidateBlockMetadata(BlockTypeEvidence, BlockMetadata{
		"evidence_type":       "screenshot",
		"relevance_score":     0.75,
		"is_document_summary": true,
		"key_details":         []interface{}{"signed", "dated"},
	})

	assert.Equal(t, "document", out["evidence_type"])
	assert.Equal(t, 0.75, out["relevance_score"])
	assert.Equal(t, true, out["is_document_summary"])
	assert.Equal(t, []string{"signed", "dated"}, out["key_details"])
}

func TestValidateBlockMetadataCoercesRuleSource(t *testing.T) {
	out := ValidateBlockMetadata(BlockTypeRule, BlockMetadata{
		"rule_source":  "regulation",
		"citation":     "MN Stat. § 491A.01",
		"jurisdiction": "MN",
	})

	assert.Equal(t, "statute", out["rule_source"])
	assert.Equal(t, "MN Stat. § 491A.01", out["citation"])
}

func TestValidateBlockMetadataStrategyPriorityFromString(t *testing.T) {
	out := ValidateBlockMetadata(BlockTypeStrategy, BlockMetadata{
		"strategy_type": "negotiation",
		"priority":      "3",
		"dependencies":  []interface{}{"gather receipts"},
	})

	assert.Equal(t, "negotiation", out["strategy_type"])
	assert.Equal(t, 3, out["priority"])
	assert.Equal(t, []string{"gather receipts"}, out["dependencies"])
}

func TestValidateBlockMetadataStrategyPriorityUnparseable(t *testing.T) {
	out := ValidateBlockMetadata(BlockTypeStrategy, BlockMetadata{"priority": "high"})
	assert.Equal(t, 1, out["priority"])
}

func TestValidateBlockMetadataQuestionDefaults(t *testing.T) {
	out := ValidateBlockMetadata(BlockTypeQuestion, BlockMetadata{
		"question_type": "rhetorical",
	})

	assert.Equal(t, "clarification", out["question_type"])
	assert.Equal(t, false, out["answered"])
}

func TestValidateBlockMetadataPreservesCommonKeys(t *testing.T) {
	out := ValidateBlockMetadata(BlockTypeFact, BlockMetadata{
		"fact_type":      "claim",
		"source":         "intake_agent",
		"tags":           []interface{}{"contract"},
		"related_blocks": []interface{}{"11111111-1111-1111-1111-111111111111"},
	})

	assert.Equal(t, "intake_agent", out["source"])
	assert.Contains(t, out, "tags")
	assert.Contains(t, out, "related_blocks")
}

func TestValidateBlockMetadataNilInput(t *testing.T) {
	out := ValidateBlockMetadata(BlockTypeFact, nil)
	require.NotNil(t, out)
	assert.Empty(t, out)
}
