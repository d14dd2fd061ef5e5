package agents

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"caseassist-backend/memory"
	"caseassist-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentAgent analyzes unprocessed uploaded documents, extracts evidence
// blocks, links them to the facts they support, and marks each document
// processed. Documents whose text extraction failed are skipped silently and
// retried on the next run.
type DocumentAgent struct {
	deps Deps
}

func NewDocumentAgent(deps Deps) *DocumentAgent { return &DocumentAgent{deps: deps} }

func (a *DocumentAgent) Name() string { return StageDocument }

func (a *DocumentAgent) Execute(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error) {
	session, err := a.deps.Sessions.GetOrCreate(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}

	documents, err := a.deps.Documents.ListUnprocessed(ctx, caseID, documentBatchSize)
	if err != nil {
		return nil, fmt.Errorf("document: list unprocessed: %w", err)
	}
	if len(documents) == 0 {
		logReasoning(ctx, a.deps.Runs, runID, a.deps.logger(), "No unprocessed documents; skipping.")
		return models.AgentResult{
			"documents_analyzed":       0,
			"evidence_items_extracted": 0,
			"high_relevance_count":     0,
		}, nil
	}

	factBlocks, err := a.deps.Memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeFact}, 50)
	if err != nil {
		return nil, fmt.Errorf("document: load facts: %w", err)
	}
	caseFactsSummary := buildFactsSummary(factBlocks)

	documentsAnalyzed := 0
	evidenceExtracted := 0
	highRelevance := 0

	for _, doc := range documents {
		if doc.ExtractedText == nil || strings.TrimSpace(*doc.ExtractedText) == "" {
			continue
		}
		docText := memory.TruncateForContext(*doc.ExtractedText, agentContextBudget)
		userMessage := buildDocumentAnalysisMessage(doc.Filename, docText, caseFactsSummary)
		logReasoning(ctx, a.deps.Runs, runID, a.deps.logger(), fmt.Sprintf("Analyzing document: %s", doc.Filename))

		raw, err := a.deps.LLM.Generate(ctx, documentAnalysisSystemPrompt, userMessage)
		if err != nil {
			return nil, fmt.Errorf("document: analyze %s: %w", doc.Filename, err)
		}
		data, err := ParseJSONResponse(raw)
		if err != nil {
			// a single malformed response skips this document, not the run
			a.deps.logger().Warn("document: unparseable model response",
				zap.String("filename", doc.Filename), zap.Error(err))
			continue
		}

		rationales, _ := data["relevance_scores"].(map[string]interface{})

		for i, item := range listField(data, "evidence_items") {
			content := strings.TrimSpace(stringField(item, "content", ""))
			if content == "" {
				continue
			}
			evidenceType := stringField(item, "evidence_type", "document")
			relevance := 0.7
			if v, ok := item["relevance_score"]; ok && v != nil {
				if f, ok := toFloat(v); ok {
					relevance = f
				}
			}
			if relevance >= 0.7 {
				highRelevance++
			}
			metadata := models.BlockMetadata{
				"evidence_type":   evidenceType,
				"document_id":     doc.ID.String(),
				"relevance_score": relevance,
			}
			if rationale, ok := rationales[strconv.Itoa(i)].(string); ok {
				if r := strings.TrimSpace(rationale); r != "" {
					metadata["relevance_rationale"] = r
				}
			}
			block, err := a.deps.Memory.CreateBlock(ctx, session.ID, models.BlockTypeEvidence, content, metadata)
			if err != nil {
				a.deps.logger().Warn("document: failed to store evidence block", zap.Error(err))
				continue
			}
			evidenceExtracted++

			a.linkToFacts(ctx, caseID, block)
		}

		for _, summ := range listField(data, "document_summaries") {
			summaryText := strings.TrimSpace(stringField(summ, "summary", ""))
			keyDetails := stringList(summ["key_details"])
			var parts []string
			if summaryText != "" {
				parts = append(parts, summaryText)
			}
			if len(keyDetails) > 0 {
				parts = append(parts, "Key details: "+strings.Join(keyDetails, "; "))
			}
			content := strings.TrimSpace(strings.Join(parts, "\n"))
			if content == "" {
				continue
			}
			metadata := models.BlockMetadata{
				"evidence_type":       "document",
				"document_id":         doc.ID.String(),
				"is_document_summary": true,
				"key_details":         keyDetails,
			}
			if _, err := a.deps.Memory.CreateBlock(ctx, session.ID, models.BlockTypeEvidence, content, metadata); err != nil {
				a.deps.logger().Warn("document: failed to store summary block", zap.Error(err))
			}
		}

		if err := a.deps.Documents.MarkProcessed(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("document: mark processed: %w", err)
		}
		documentsAnalyzed++
	}

	return models.AgentResult{
		"documents_analyzed":       documentsAnalyzed,
		"evidence_items_extracted": evidenceExtracted,
		"high_relevance_count":     highRelevance,
	}, nil
}

// linkToFacts attaches the evidence block to the facts it most resembles.
// Linking is best-effort; a search failure never fails the run.
func (a *DocumentAgent) linkToFacts(ctx context.Context, caseID uuid.UUID, block *models.MemoryBlock) {
	scored, err := a.deps.Memory.Search(ctx, block.Content,
		memory.SearchScope{CaseID: &caseID},
		memory.SearchOptions{BlockTypes: []models.BlockType{models.BlockTypeFact}, Limit: 3})
	if err != nil {
		a.deps.logger().Warn("document: fact search failed", zap.Error(err))
		return
	}
	if len(scored) == 0 {
		return
	}
	factIDs := make([]uuid.UUID, 0, len(scored))
	for _, sb := range scored {
		if sb.Block != nil {
			factIDs = append(factIDs, sb.Block.ID)
		}
	}
	if _, err := a.deps.Memory.LinkBlocks(ctx, block.ID, factIDs); err != nil {
		a.deps.logger().Warn("document: failed to link evidence to facts", zap.Error(err))
	}
}
