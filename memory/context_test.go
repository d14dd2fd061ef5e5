package memory

import (
	"strings"
	"testing"

	"caseassist-backend/models"

	"github.com/stretchr/testify/assert"
)

func block(bt models.BlockType, content string) models.MemoryBlock {
	return models.MemoryBlock{BlockType: bt, Content: content}
}

func TestFormatContextGroupsAndOrders(t *testing.T) {
	blocks := []models.MemoryBlock{
		block(models.BlockTypeQuestion, "when was notice given?"),
		block(models.BlockTypeFact, "rent was $1200"),
		block(models.BlockTypeEvidence, "bank statement"),
		block(models.BlockTypeFact, "lease started June 1"),
	}

	out := FormatContext(blocks)

	assert.Equal(t, strings.Join([]string{
		"## Fact",
		"- rent was $1200",
		"- lease started June 1",
		"",
		"## Evidence",
		"- bank statement",
		"",
		"## Question",
		"- when was notice given?",
	}, "\n"), out)
}

func TestFormatContextEmpty(t *testing.T) {
	assert.Equal(t, "", FormatContext(nil))
}

func TestExtractKeyFactsDeduplicates(t *testing.T) {
	blocks := []models.MemoryBlock{
		block(models.BlockTypeFact, "rent was $1200"),
		block(models.BlockTypeEvidence, "bank statement"),
		block(models.BlockTypeFact, "  rent was $1200  "),
		block(models.BlockTypeFact, "lease started June 1"),
		block(models.BlockTypeFact, "   "),
	}

	facts := ExtractKeyFacts(blocks)
	assert.Equal(t, []string{"rent was $1200", "lease started June 1"}, facts)
}

func TestTruncateForContextShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "short text.", TruncateForContext("  short text.  ", 100))
}

func TestTruncateForContextSentenceBoundary(t *testing.T) {
	text := "First sentence is long enough. Second sentence gets cut somewhere in the middle"
	out := TruncateForContext(text, 50)
	assert.Equal(t, "First sentence is long enough.", out)
}

func TestTruncateForContextNewlineBoundary(t *testing.T) {
	text := "line one without period\nline two also without period and quite long indeed"
	out := TruncateForContext(text, 40)
	assert.Equal(t, "line one without period", out)
}

func TestTruncateForContextHardCut(t *testing.T) {
	text := strings.Repeat("x", 100)
	out := TruncateForContext(text, 50)
	assert.Equal(t, strings.Repeat("x", 50)+"...", out)
}
