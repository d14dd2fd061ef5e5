package agents

import (
	"context"
	"fmt"
	"strings"

	"caseassist-backend/memory"
	"caseassist-backend/models"

	"github.com/google/uuid"
)

// DraftingAgent synthesizes the full case context into court-ready output:
// a Statement of Claim, a hearing script, and legal advice. The combined
// text is stored on the case and each document is returned in the result.
type DraftingAgent struct {
	deps Deps
}

func NewDraftingAgent(deps Deps) *DraftingAgent { return &DraftingAgent{deps: deps} }

func (a *DraftingAgent) Name() string { return StageDrafting }

func (a *DraftingAgent) Execute(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error) {
	if _, err := a.deps.Sessions.GetOrCreate(ctx, caseID); err != nil {
		return nil, fmt.Errorf("drafting: %w", err)
	}

	factBlocks, err := a.deps.Memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeFact}, 100)
	if err != nil {
		return nil, fmt.Errorf("drafting: load facts: %w", err)
	}
	evidenceBlocks, err := a.deps.Memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeEvidence}, 100)
	if err != nil {
		return nil, fmt.Errorf("drafting: load evidence: %w", err)
	}
	ruleBlocks, err := a.deps.Memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeRule}, 50)
	if err != nil {
		return nil, fmt.Errorf("drafting: load rules: %w", err)
	}
	strategyBlocks, err := a.deps.Memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeStrategy}, 50)
	if err != nil {
		return nil, fmt.Errorf("drafting: load strategy: %w", err)
	}

	factsSummary := memory.TruncateForContext(buildFactsSummary(factBlocks), agentContextBudget)
	evidenceSummary := memory.TruncateForContext(buildEvidenceSummary(evidenceBlocks), agentContextBudget)
	rulesSummary := memory.TruncateForContext(buildRulesSummary(ruleBlocks), agentContextBudget)
	strategySummary := memory.TruncateForContext(buildStrategySummary(strategyBlocks), agentContextBudget)

	c, err := a.deps.Cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("drafting: load case: %w", err)
	}
	caseTitle := strings.TrimSpace(c.Title)
	if caseTitle == "" {
		caseTitle = "Untitled Case"
	}

	disputeType := "other"
	var parties []string
	if intake := latestResult(ctx, a.deps.Runs, caseID, StageIntake); intake != nil {
		disputeType = stringField(intake, "dispute_type", "other")
		parties = stringList(intake["parties"])
	}

	userMessage := buildDraftingUserMessage(caseTitle, factsSummary, evidenceSummary, rulesSummary, strategySummary, disputeType, parties)
	userMessage = memory.TruncateForContext(userMessage, agentContextBudget)

	logReasoning(ctx, a.deps.Runs, runID, a.deps.logger(), "Generating court documents.")

	raw, err := a.deps.LLM.Generate(ctx, draftingSystemPrompt, userMessage)
	if err != nil {
		return nil, fmt.Errorf("drafting: %w", err)
	}
	data, err := ParseJSONResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("drafting: %w", err)
	}

	result := models.AgentResult{}
	var sections []string
	documentsGenerated := 0

	type docSpec struct {
		key    string
		header string
	}
	for _, spec := range []docSpec{
		{"statement_of_claim", "STATEMENT OF CLAIM"},
		{"hearing_script", "HEARING SCRIPT"},
		{"legal_advice", "LEGAL ADVICE"},
	} {
		doc, ok := data[spec.key].(map[string]interface{})
		if !ok {
			continue
		}
		fullText := strings.TrimSpace(stringField(doc, "full_text", ""))
		if fullText == "" {
			continue
		}
		result[spec.key] = fullText
		sections = append(sections, fmt.Sprintf("=== %s ===\n\n%s", spec.header, fullText))
		documentsGenerated++
		if spec.key == "statement_of_claim" {
			if amount, ok := doc["claim_amount"]; ok && amount != nil {
				result["claim_amount"] = amount
			}
		}
	}
	result["documents_generated"] = documentsGenerated

	if documentsGenerated > 0 {
		combined := strings.Join(sections, "\n\n")
		if err := a.deps.Cases.SetGeneratedContent(ctx, caseID, combined); err != nil {
			return nil, fmt.Errorf("drafting: store generated content: %w", err)
		}
	}

	return result, nil
}
