package agents

import (
	"context"
	"fmt"
	"strings"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResearchAgent finds applicable Minnesota Conciliation Court rules and case
// law via hybrid retrieval, asks the model to assess applicability, and
// stores the results as rule blocks.
type ResearchAgent struct {
	deps Deps
}

func NewResearchAgent(deps Deps) *ResearchAgent { return &ResearchAgent{deps: deps} }

func (a *ResearchAgent) Name() string { return StageResearch }

func (a *ResearchAgent) Execute(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error) {
	session, err := a.deps.Sessions.GetOrCreate(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("research: %w", err)
	}

	factBlocks, err := a.deps.Memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeFact}, 50)
	if err != nil {
		return nil, fmt.Errorf("research: load facts: %w", err)
	}
	factsSummary := buildFactsSummary(factBlocks)

	disputeType := "other"
	if intake := latestResult(ctx, a.deps.Runs, caseID, StageIntake); intake != nil {
		disputeType = stringField(intake, "dispute_type", "other")
	}

	query := fmt.Sprintf("%s Minnesota Conciliation Court rules procedures", disputeType)
	if factsSummary != "" {
		snippet := factsSummary
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		query = query + " " + snippet
	}

	hybrid, err := a.deps.Rules.HybridSearch(ctx, query, true, true, maxResearchRules)
	if err != nil {
		return nil, fmt.Errorf("research: rule search: %w", err)
	}

	var staticLines []string
	for _, r := range hybrid.StaticRules {
		content := r.Content
		if len(content) > 500 {
			content = content[:500]
		}
		staticLines = append(staticLines, fmt.Sprintf("- %s: %s", r.Title, content))
	}
	staticRulesText := strings.Join(staticLines, "\n")

	var caseLawParts []string
	for _, sr := range hybrid.CaseLaw {
		if sr.Rule == nil {
			continue
		}
		caseLawParts = append(caseLawParts, fmt.Sprintf("### %s\n%s", sr.Rule.Title, sr.Rule.Content))
	}
	caseLawText := strings.Join(caseLawParts, "\n")

	userMessage := buildResearchUserMessage(factsSummary, disputeType, staticRulesText, caseLawText)
	logReasoning(ctx, a.deps.Runs, runID, a.deps.logger(), "Analyzing research results.")

	raw, err := a.deps.LLM.Generate(ctx, researchSystemPrompt, userMessage)
	if err != nil {
		return nil, fmt.Errorf("research: %w", err)
	}
	data, err := ParseJSONResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("research: %w", err)
	}

	rulesFound := 0
	staticCount := 0
	caseLawCount := 0
	for _, item := range listField(data, "applicable_rules") {
		source := strings.ToLower(stringField(item, "source", "statute"))
		switch source {
		case "statute", "case_law", "court_rule":
		default:
			source = "statute"
		}
		content := stringField(item, "content_summary", stringField(item, "content", ""))
		if len(content) > 2000 {
			content = content[:2000]
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		metadata := models.BlockMetadata{
			"rule_source":  source,
			"jurisdiction": "Minnesota",
		}
		if v, ok := item["citation"]; ok && v != nil {
			metadata["citation"] = v
		}
		if v, ok := item["applicability_score"]; ok && v != nil {
			metadata["applicability_score"] = v
		}
		if _, err := a.deps.Memory.CreateBlock(ctx, session.ID, models.BlockTypeRule, content, metadata); err != nil {
			a.deps.logger().Warn("research: failed to store rule block", zap.Error(err))
			continue
		}
		rulesFound++
		if source == "case_law" {
			caseLawCount++
		} else {
			staticCount++
		}
	}

	// Also persist the top retrieved static rules so later stages see them
	// even when the model omits them from applicable_rules.
	topStatic := hybrid.StaticRules
	if len(topStatic) > 5 {
		topStatic = topStatic[:5]
	}
	for _, r := range topStatic {
		if rulesFound >= maxResearchRules {
			break
		}
		content := r.Content
		if len(content) > 2000 {
			content = content[:2000]
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		citation := r.Source
		if citation == "" {
			citation = r.Title
		}
		metadata := models.BlockMetadata{
			"rule_source":         "statute",
			"citation":            citation,
			"jurisdiction":        "Minnesota",
			"applicability_score": 0.8,
		}
		if _, err := a.deps.Memory.CreateBlock(ctx, session.ID, models.BlockTypeRule, content, metadata); err != nil {
			a.deps.logger().Warn("research: failed to store static rule block", zap.Error(err))
			continue
		}
		rulesFound++
		staticCount++
	}

	standards := stringList(data["legal_standards"])
	if len(standards) > 5 {
		standards = standards[:5]
	}

	return models.AgentResult{
		"rules_found":        rulesFound,
		"case_law_count":     caseLawCount,
		"static_rules_count": staticCount,
		"research_summary":   strings.Join(standards, "; "),
	}, nil
}
