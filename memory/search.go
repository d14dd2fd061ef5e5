package memory

import (
	"context"
	"fmt"

	"caseassist-backend/models"
	"caseassist-backend/repository"

	"github.com/google/uuid"
)

// SearchScope selects exactly one visibility level for a similarity search.
// When more than one field is set the narrowest wins: session, then case,
// then user. An empty scope matches nothing.
type SearchScope struct {
	SessionID *uuid.UUID
	CaseID    *uuid.UUID
	UserID    *uuid.UUID
}

func (s SearchScope) empty() bool {
	return s.SessionID == nil && s.CaseID == nil && s.UserID == nil
}

// SearchOptions tunes a similarity search
type SearchOptions struct {
	BlockTypes    []models.BlockType
	Limit         int
	MinSimilarity float64
}

// Search embeds the query and returns the most similar blocks within the
// scope, similarity descending. The user scope joins through case ownership
// so results never include another user's blocks.
func (s *Store) Search(ctx context.Context, query string, scope SearchScope, opts SearchOptions) ([]models.ScoredBlock, error) {
	if scope.empty() {
		return []models.ScoredBlock{}, nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed search query: %w", err)
	}

	return s.blocks.Search(ctx, embedding, repository.BlockSearchParams{
		SessionID:     scope.SessionID,
		CaseID:        scope.CaseID,
		UserID:        scope.UserID,
		BlockTypes:    opts.BlockTypes,
		MinSimilarity: opts.MinSimilarity,
		Limit:         opts.Limit,
	})
}
