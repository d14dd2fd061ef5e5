package repository

import (
	"strings"
	"testing"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[0.500000]", formatVector([]float64{0.5}))
	assert.Equal(t, "[1.000000,-0.250000,0.000000]", formatVector([]float64{1, -0.25, 0}))
}

func TestValidateEmbedding(t *testing.T) {
	assert.Error(t, validateEmbedding(make([]float64, 768)))
	assert.Error(t, validateEmbedding(nil))
	assert.NoError(t, validateEmbedding(make([]float64, EmbeddingDimensions)))
}

func TestBuildBlockSearchQueryNoScope(t *testing.T) {
	_, _, ok := buildBlockSearchQuery(BlockSearchParams{Limit: 5}, "[]")
	assert.False(t, ok, "search without a scope should not run")
}

func TestBuildBlockSearchQuerySessionScope(t *testing.T) {
	sessionID := uuid.New()
	query, args, ok := buildBlockSearchQuery(BlockSearchParams{
		SessionID: &sessionID,
		Limit:     5,
	}, "[0.1]")
	require.True(t, ok)

	assert.Contains(t, query, "mb.session_id = $2")
	assert.NotContains(t, query, "JOIN")
	assert.Contains(t, query, "ORDER BY mb.embedding <=> $1::vector ASC")
	assert.Equal(t, []interface{}{"[0.1]", sessionID, 5}, args)
}

func TestBuildBlockSearchQuerySessionWinsOverCaseAndUser(t *testing.T) {
	sessionID := uuid.New()
	caseID := uuid.New()
	userID := uuid.New()
	query, args, ok := buildBlockSearchQuery(BlockSearchParams{
		SessionID: &sessionID,
		CaseID:    &caseID,
		UserID:    &userID,
		Limit:     5,
	}, "[0.1]")
	require.True(t, ok)

	assert.Contains(t, query, "mb.session_id = $2")
	assert.NotContains(t, query, "cs.case_id")
	assert.NotContains(t, query, "c.user_id")
	assert.Equal(t, []interface{}{"[0.1]", sessionID, 5}, args)
}

func TestBuildBlockSearchQueryCaseScope(t *testing.T) {
	caseID := uuid.New()
	query, args, ok := buildBlockSearchQuery(BlockSearchParams{
		CaseID: &caseID,
		Limit:  10,
	}, "[0.1]")
	require.True(t, ok)

	assert.Contains(t, query, "JOIN case_sessions cs ON mb.session_id = cs.id")
	assert.Contains(t, query, "cs.case_id = $2")
	assert.NotContains(t, query, "JOIN cases")
	assert.Equal(t, []interface{}{"[0.1]", caseID, 10}, args)
}

func TestBuildBlockSearchQueryUserScope(t *testing.T) {
	userID := uuid.New()
	query, _, ok := buildBlockSearchQuery(BlockSearchParams{
		UserID: &userID,
		Limit:  10,
	}, "[0.1]")
	require.True(t, ok)

	assert.Contains(t, query, "JOIN case_sessions cs ON mb.session_id = cs.id")
	assert.Contains(t, query, "JOIN cases c ON cs.case_id = c.id")
	assert.Contains(t, query, "c.user_id = $2")
}

func TestBuildBlockSearchQueryTypeFilterAndFloor(t *testing.T) {
	sessionID := uuid.New()
	query, args, ok := buildBlockSearchQuery(BlockSearchParams{
		SessionID:     &sessionID,
		BlockTypes:    []models.BlockType{models.BlockTypeFact, models.BlockTypeEvidence},
		MinSimilarity: 0.7,
		Limit:         20,
	}, "[0.1]")
	require.True(t, ok)

	assert.Contains(t, query, "mb.block_type = ANY($3)")
	assert.Contains(t, query, "(1 - (mb.embedding <=> $1::vector)) >= $4")
	assert.Contains(t, query, "LIMIT $5")
	require.Len(t, args, 5)
	assert.Equal(t, []string{"fact", "evidence"}, args[2])
	assert.Equal(t, 0.7, args[3])
	assert.Equal(t, 20, args[4])
}

func TestBuildBlockSearchQueryDefaultLimit(t *testing.T) {
	sessionID := uuid.New()
	query, args, ok := buildBlockSearchQuery(BlockSearchParams{SessionID: &sessionID}, "[0.1]")
	require.True(t, ok)

	assert.True(t, strings.HasSuffix(strings.TrimSpace(query), "LIMIT $3"))
	assert.Equal(t, 10, args[len(args)-1])
}
