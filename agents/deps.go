package agents

import (
	"context"

	"caseassist-backend/memory"
	"caseassist-backend/models"
	"caseassist-backend/rules"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tunables for the concrete agents
const (
	maxIntakeQuestions = 5
	maxResearchRules   = 10
	documentBatchSize  = 10
	agentContextBudget = memory.DefaultContextBudget
)

// MemoryStore is the slice of the memory subsystem the agents write through.
type MemoryStore interface {
	CreateBlock(ctx context.Context, sessionID uuid.UUID, blockType models.BlockType, content string, metadata models.BlockMetadata) (*models.MemoryBlock, error)
	CaseContext(ctx context.Context, caseID uuid.UUID, blockTypes []models.BlockType, limit int) ([]models.MemoryBlock, error)
	Search(ctx context.Context, query string, scope memory.SearchScope, opts memory.SearchOptions) ([]models.ScoredBlock, error)
	LinkBlocks(ctx context.Context, id uuid.UUID, relatedIDs []uuid.UUID) (*models.MemoryBlock, error)
}

// SessionProvider yields the active session blocks are written into.
type SessionProvider interface {
	GetOrCreate(ctx context.Context, caseID uuid.UUID) (*models.Session, error)
}

// CaseStore reads case rows and stores drafted output.
type CaseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
	SetGeneratedContent(ctx context.Context, id uuid.UUID, content string) error
}

// DocumentStore feeds the document analysis agent.
type DocumentStore interface {
	ListUnprocessed(ctx context.Context, caseID uuid.UUID, limit int) ([]models.Document, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
}

// RuleSearcher is the hybrid rule retrieval surface used by research.
type RuleSearcher interface {
	HybridSearch(ctx context.Context, query string, includeStatic, includeCaseLaw bool, limit int) (*rules.HybridResult, error)
}

// Deps bundles the collaborators shared by the concrete agents.
type Deps struct {
	Memory    MemoryStore
	Sessions  SessionProvider
	Cases     CaseStore
	Documents DocumentStore
	Rules     RuleSearcher
	Runs      RunStore
	LLM       LLMClient
	Logger    *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
