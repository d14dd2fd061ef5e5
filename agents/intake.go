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

// IntakeAgent extracts case facts from the case description, categorizes the
// dispute type, identifies parties and timeline, and generates clarifying
// questions stored as question blocks.
type IntakeAgent struct {
	deps Deps
}

func NewIntakeAgent(deps Deps) *IntakeAgent { return &IntakeAgent{deps: deps} }

func (a *IntakeAgent) Name() string { return StageIntake }

func (a *IntakeAgent) Execute(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error) {
	session, err := a.deps.Sessions.GetOrCreate(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}

	c, err := a.deps.Cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("intake: load case: %w", err)
	}
	description := strings.TrimSpace(c.Description)
	if description == "" {
		logReasoning(ctx, a.deps.Runs, runID, a.deps.logger(), "No case description; skipping fact extraction.")
		return models.AgentResult{
			"dispute_type":        "other",
			"facts_extracted":     0,
			"questions_generated": 0,
			"parties":             []string{},
		}, nil
	}

	existing, err := a.deps.Memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeFact, models.BlockTypeQuestion}, 50)
	if err != nil {
		return nil, fmt.Errorf("intake: load context: %w", err)
	}
	userMessage := buildIntakeUserMessage(description, memory.FormatContext(existing))

	raw, err := a.deps.LLM.Generate(ctx, intakeSystemPrompt, userMessage)
	if err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}
	logReasoning(ctx, a.deps.Runs, runID, a.deps.logger(), "Model response received; parsing structured output.")

	data, err := ParseJSONResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}

	disputeType := stringField(data, "dispute_type", "other")
	parties := stringList(data["parties"])

	factsCreated := 0
	for _, item := range listField(data, "facts") {
		content := strings.TrimSpace(stringField(item, "content", ""))
		if content == "" {
			continue
		}
		metadata := models.BlockMetadata{
			"fact_type":        stringField(item, "fact_type", "claim"),
			"confidence_score": ConfidenceScore(item),
		}
		if v, ok := item["date_occurred"]; ok && v != nil {
			metadata["date_occurred"] = v
		}
		if v, ok := item["parties_involved"]; ok && v != nil {
			metadata["parties_involved"] = v
		}
		if _, err := a.deps.Memory.CreateBlock(ctx, session.ID, models.BlockTypeFact, content, metadata); err != nil {
			a.deps.logger().Warn("intake: failed to store fact block", zap.Error(err))
			continue
		}
		factsCreated++
	}

	for _, item := range listField(data, "timeline_events") {
		content := strings.TrimSpace(stringField(item, "description", ""))
		if content == "" {
			continue
		}
		metadata := models.BlockMetadata{
			"fact_type":        "timeline",
			"confidence_score": ConfidenceScore(item),
		}
		if v, ok := item["date"]; ok && v != nil {
			metadata["date_occurred"] = v
		}
		if _, err := a.deps.Memory.CreateBlock(ctx, session.ID, models.BlockTypeFact, content, metadata); err != nil {
			a.deps.logger().Warn("intake: failed to store timeline block", zap.Error(err))
			continue
		}
		factsCreated++
	}

	questions := listField(data, "questions")
	if len(questions) > maxIntakeQuestions {
		questions = questions[:maxIntakeQuestions]
	}
	questionsCreated := 0
	for _, item := range questions {
		content := strings.TrimSpace(stringField(item, "content", ""))
		if content == "" {
			continue
		}
		metadata := models.BlockMetadata{
			"question_type": stringField(item, "question_type", "clarification"),
			"answered":      false,
		}
		if _, err := a.deps.Memory.CreateBlock(ctx, session.ID, models.BlockTypeQuestion, content, metadata); err != nil {
			a.deps.logger().Warn("intake: failed to store question block", zap.Error(err))
			continue
		}
		questionsCreated++
	}

	return models.AgentResult{
		"dispute_type":        disputeType,
		"facts_extracted":     factsCreated,
		"questions_generated": questionsCreated,
		"parties":             parties,
	}, nil
}

func stringList(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
