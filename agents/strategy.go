package agents

import (
	"context"
	"fmt"
	"strings"

	"caseassist-backend/memory"
	"caseassist-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StrategyAgent weighs facts, evidence, and rules to produce prioritized
// legal arguments, negotiation points, and procedural steps as strategy
// blocks.
type StrategyAgent struct {
	deps Deps
}

func NewStrategyAgent(deps Deps) *StrategyAgent { return &StrategyAgent{deps: deps} }

func (a *StrategyAgent) Name() string { return StageStrategy }

func (a *StrategyAgent) Execute(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error) {
	session, err := a.deps.Sessions.GetOrCreate(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("strategy: %w", err)
	}

	factBlocks, err := a.deps.Memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeFact}, 50)
	if err != nil {
		return nil, fmt.Errorf("strategy: load facts: %w", err)
	}
	evidenceBlocks, err := a.deps.Memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeEvidence}, 50)
	if err != nil {
		return nil, fmt.Errorf("strategy: load evidence: %w", err)
	}
	ruleBlocks, err := a.deps.Memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeRule}, 30)
	if err != nil {
		return nil, fmt.Errorf("strategy: load rules: %w", err)
	}

	factsSummary := memory.TruncateForContext(buildFactsSummary(factBlocks), agentContextBudget)
	evidenceSummary := memory.TruncateForContext(buildEvidenceSummary(evidenceBlocks), agentContextBudget)
	rulesSummary := memory.TruncateForContext(buildRulesSummary(ruleBlocks), agentContextBudget)

	disputeType := "other"
	if intake := latestResult(ctx, a.deps.Runs, caseID, StageIntake); intake != nil {
		disputeType = stringField(intake, "dispute_type", "other")
	}

	userMessage := buildStrategyUserMessage(factsSummary, evidenceSummary, rulesSummary, disputeType)
	userMessage = memory.TruncateForContext(userMessage, agentContextBudget)

	logReasoning(ctx, a.deps.Runs, runID, a.deps.logger(), "Analyzing case strategy.")

	raw, err := a.deps.LLM.Generate(ctx, strategySystemPrompt, userMessage)
	if err != nil {
		return nil, fmt.Errorf("strategy: %w", err)
	}
	data, err := ParseJSONResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("strategy: %w", err)
	}

	legalArguments := a.storeStrategyBlocks(ctx, session.ID, listField(data, "legal_arguments"), "legal_argument")
	negotiationPoints := a.storeStrategyBlocks(ctx, session.ID, listField(data, "negotiation_points"), "negotiation")
	proceduralSteps := a.storeStrategyBlocks(ctx, session.ID, listField(data, "procedural_steps"), "procedural")

	return models.AgentResult{
		"legal_arguments_created":    legalArguments,
		"negotiation_points_created": negotiationPoints,
		"procedural_steps_created":   proceduralSteps,
		"case_strengths":             stringList(data["case_strengths"]),
		"case_weaknesses":            stringList(data["case_weaknesses"]),
		"burden_of_proof_analysis":   strings.TrimSpace(stringField(data, "burden_of_proof_analysis", "")),
		"recommended_approach":       strings.TrimSpace(stringField(data, "recommended_approach", "")),
	}, nil
}

func (a *StrategyAgent) storeStrategyBlocks(ctx context.Context, sessionID uuid.UUID, items []map[string]interface{}, strategyType string) int {
	created := 0
	for _, item := range items {
		content := strings.TrimSpace(stringField(item, "content", ""))
		if content == "" {
			continue
		}
		priority := 1
		if v, ok := item["priority"]; ok && v != nil {
			if f, ok := toFloat(v); ok {
				priority = int(f)
			}
		}
		metadata := models.BlockMetadata{
			"strategy_type": strategyType,
			"priority":      priority,
		}
		switch strategyType {
		case "legal_argument":
			if v, ok := item["confidence_score"]; ok && v != nil {
				metadata["confidence_score"] = v
			}
			if v, ok := item["supporting_evidence_ids"]; ok && v != nil {
				metadata["supporting_evidence_ids"] = v
			}
			if v, ok := item["supporting_rule_citations"]; ok && v != nil {
				metadata["supporting_rule_citations"] = v
			}
		case "procedural":
			metadata["dependencies"] = stringList(item["dependencies"])
		}
		if _, err := a.deps.Memory.CreateBlock(ctx, sessionID, models.BlockTypeStrategy, content, metadata); err != nil {
			a.deps.logger().Warn("strategy: failed to store strategy block",
				zap.String("strategy_type", strategyType), zap.Error(err))
			continue
		}
		created++
	}
	return created
}
