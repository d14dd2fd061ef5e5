package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerRunCompletesOnSuccess(t *testing.T) {
	store := newFakeRunStore()
	runner := NewRunner(store, 0, nil)
	agent := &stubAgent{name: StageIntake, execute: func(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error) {
		return models.AgentResult{"facts_extracted": 3}, nil
	}}

	run, err := runner.Run(context.Background(), uuid.New(), agent)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, float64(3), toF(run.Result["facts_extracted"]))
	assert.NotNil(t, run.CompletedAt)
}

// fake stores hold native ints; pg round-trips through JSONB floats
func toF(v interface{}) float64 {
	f, _ := toFloat(v)
	return f
}

func TestRunnerRunRecordsFailure(t *testing.T) {
	store := newFakeRunStore()
	runner := NewRunner(store, 0, nil)
	agent := &stubAgent{name: StageResearch, execute: func(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error) {
		return nil, errors.New("model unavailable")
	}}

	run, err := runner.Run(context.Background(), uuid.New(), agent)
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "model unavailable", *run.ErrorMessage)
}

func TestRunnerRunTimeout(t *testing.T) {
	store := newFakeRunStore()
	runner := NewRunner(store, 20*time.Millisecond, nil)
	agent := &stubAgent{name: StageDocument, execute: func(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	run, err := runner.Run(context.Background(), uuid.New(), agent)
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "Timeout after 0s", *run.ErrorMessage)
}

func TestRunnerRetriesAppendRows(t *testing.T) {
	store := newFakeRunStore()
	runner := NewRunner(store, 0, nil)
	caseID := uuid.New()
	boom := &stubAgent{name: StageIntake, execute: func(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error) {
		return nil, errors.New("transient")
	}}
	ok := &stubAgent{name: StageIntake}

	_, err := runner.Run(context.Background(), caseID, boom)
	require.Error(t, err)
	_, err = runner.Run(context.Background(), caseID, ok)
	require.NoError(t, err)

	runs, err := store.ListByCase(context.Background(), caseID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Equal(t, models.RunStatusCompleted, runs[1].Status)
}
