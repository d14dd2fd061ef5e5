package memory

import (
	"strings"

	"caseassist-backend/models"
)

// DefaultContextBudget is the character budget for text handed to the LLM
const DefaultContextBudget = 12000

// contextTypeOrder fixes the section order of formatted context
var contextTypeOrder = []models.BlockType{
	models.BlockTypeFact,
	models.BlockTypeEvidence,
	models.BlockTypeStrategy,
	models.BlockTypeRule,
	models.BlockTypeQuestion,
}

// FormatContext renders memory blocks as markdown grouped by type, in a
// fixed section order, for inclusion in agent prompts.
func FormatContext(blocks []models.MemoryBlock) string {
	byType := make(map[models.BlockType][]models.MemoryBlock)
	for _, b := range blocks {
		byType[b.BlockType] = append(byType[b.BlockType], b)
	}

	var lines []string
	for _, bt := range contextTypeOrder {
		group, ok := byType[bt]
		if !ok {
			continue
		}
		lines = append(lines, "## "+titleCase(string(bt)))
		for _, b := range group {
			lines = append(lines, "- "+b.Content)
		}
		lines = append(lines, "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ExtractKeyFacts returns deduplicated fact content in block order
func ExtractKeyFacts(blocks []models.MemoryBlock) []string {
	seen := make(map[string]bool)
	var facts []string
	for _, b := range blocks {
		if b.BlockType != models.BlockTypeFact {
			continue
		}
		c := strings.TrimSpace(b.Content)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		facts = append(facts, c)
	}
	return facts
}

// TruncateForContext shortens text to maxChars, preferring a sentence or
// line boundary when one falls in the second half of the budget.
func TruncateForContext(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultContextBudget
	}
	text = strings.TrimSpace(text)
	if len(text) <= maxChars {
		return text
	}
	truncated := text[:maxChars]
	cut := strings.LastIndex(truncated, ".")
	if nl := strings.LastIndex(truncated, "\n"); nl > cut {
		cut = nl
	}
	if cut > maxChars/2 {
		return strings.TrimRight(truncated[:cut+1], " \t\n")
	}
	return strings.TrimRight(truncated, " \t\n") + "..."
}
