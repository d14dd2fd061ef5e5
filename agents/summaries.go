package agents

import (
	"fmt"
	"sort"
	"strings"

	"caseassist-backend/models"
)

// Summary builders flatten memory blocks into the plain-text digests the
// prompts consume. Blocks of the wrong type are skipped rather than erroring
// so callers can pass mixed context slices.

func buildFactsSummary(blocks []models.MemoryBlock) string {
	var lines []string
	for _, b := range blocks {
		if b.BlockType != models.BlockTypeFact {
			continue
		}
		content := strings.TrimSpace(b.Content)
		if content == "" {
			continue
		}
		factType := metaString(b.Metadata, "fact_type", "fact")
		lines = append(lines, fmt.Sprintf("- [%s] %s", factType, content))
	}
	return strings.Join(lines, "\n")
}

func buildEvidenceSummary(blocks []models.MemoryBlock) string {
	var lines []string
	for _, b := range blocks {
		if b.BlockType != models.BlockTypeEvidence {
			continue
		}
		content := strings.TrimSpace(b.Content)
		if content == "" {
			continue
		}
		evidenceType := metaString(b.Metadata, "evidence_type", "document")
		score := ""
		if v, ok := b.Metadata["relevance_score"]; ok {
			score = fmt.Sprintf("%v", v)
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s (relevance: %s)", evidenceType, content, score))
	}
	return strings.Join(lines, "\n")
}

func buildRulesSummary(blocks []models.MemoryBlock) string {
	var lines []string
	for _, b := range blocks {
		if b.BlockType != models.BlockTypeRule {
			continue
		}
		content := strings.TrimSpace(b.Content)
		if content == "" {
			continue
		}
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		source := metaString(b.Metadata, "rule_source", "rule")
		citation := metaString(b.Metadata, "citation", "")
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s", source, citation, content))
	}
	return strings.Join(lines, "\n")
}

// buildStrategySummary groups strategy blocks by strategy_type and sorts
// each group by priority, lowest (most urgent) first.
func buildStrategySummary(blocks []models.MemoryBlock) string {
	byType := map[string][]models.MemoryBlock{}
	for _, b := range blocks {
		if b.BlockType != models.BlockTypeStrategy {
			continue
		}
		st := metaString(b.Metadata, "strategy_type", "legal_argument")
		switch st {
		case "legal_argument", "negotiation", "procedural":
		default:
			st = "legal_argument"
		}
		byType[st] = append(byType[st], b)
	}
	for key := range byType {
		group := byType[key]
		sort.SliceStable(group, func(i, j int) bool {
			return strategyPriority(group[i]) < strategyPriority(group[j])
		})
	}

	var sections []string
	for _, st := range []string{"legal_argument", "negotiation", "procedural"} {
		var lines []string
		for _, b := range byType[st] {
			content := strings.TrimSpace(b.Content)
			if content != "" {
				lines = append(lines, "- "+content)
			}
		}
		if len(lines) > 0 {
			header := "### " + titleWords(st)
			sections = append(sections, header+"\n"+strings.Join(lines, "\n"))
		}
	}
	return strings.Join(sections, "\n\n")
}

func strategyPriority(b models.MemoryBlock) int {
	if v, ok := b.Metadata["priority"]; ok {
		if f, ok := toFloat(v); ok {
			return int(f)
		}
	}
	return 99
}

func metaString(meta models.BlockMetadata, key, fallback string) string {
	if meta == nil {
		return fallback
	}
	if s, ok := meta[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func titleWords(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
