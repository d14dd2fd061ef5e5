package repository

import (
	"context"
	"time"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AgentRunRepository handles database operations for agent runs. Runs are
// append-only: rows are created when an agent starts and finalized exactly
// once, never deleted.
type AgentRunRepository struct {
	db *pgxpool.Pool
}

// NewAgentRunRepository creates a new agent run repository
func NewAgentRunRepository(db *pgxpool.Pool) *AgentRunRepository {
	return &AgentRunRepository{db: db}
}

// Create records the start of an agent execution
func (r *AgentRunRepository) Create(ctx context.Context, run *models.AgentRun) error {
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}
	query := `
		INSERT INTO agent_runs (case_id, agent_name, status)
		VALUES ($1, $2, $3)
		RETURNING id, started_at`

	return r.db.QueryRow(
		ctx, query,
		run.CaseID,
		run.AgentName,
		run.Status,
	).Scan(&run.ID, &run.StartedAt)
}

// GetByID retrieves an agent run by ID
func (r *AgentRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AgentRun, error) {
	run := &models.AgentRun{}
	query := `
		SELECT id, case_id, agent_name, status, reasoning, result,
			started_at, completed_at, error_message
		FROM agent_runs
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.CaseID,
		&run.AgentName,
		&run.Status,
		&run.Reasoning,
		&run.Result,
		&run.StartedAt,
		&run.CompletedAt,
		&run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Complete finalizes a run as successful with its result and reasoning
func (r *AgentRunRepository) Complete(ctx context.Context, id uuid.UUID, result models.AgentResult, reasoning *string) error {
	query := `
		UPDATE agent_runs SET
			status = $2,
			result = $3,
			reasoning = $4,
			completed_at = $5
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.RunStatusCompleted, result, reasoning, time.Now())
	return err
}

// UpdateReasoning rewrites a run's progress narration while it executes
func (r *AgentRunRepository) UpdateReasoning(ctx context.Context, id uuid.UUID, reasoning string) error {
	_, err := r.db.Exec(ctx, `UPDATE agent_runs SET reasoning = $2 WHERE id = $1`, id, reasoning)
	return err
}

// Fail finalizes a run as failed with an error message
func (r *AgentRunRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE agent_runs SET
			status = $2,
			error_message = $3,
			completed_at = $4
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.RunStatusFailed, errorMessage, time.Now())
	return err
}

// ListByCase retrieves all runs for a case ordered by start time ascending.
// Workflow state derivation depends on this ordering.
func (r *AgentRunRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.AgentRun, error) {
	query := `
		SELECT id, case_id, agent_name, status, reasoning, result,
			started_at, completed_at, error_message
		FROM agent_runs
		WHERE case_id = $1
		ORDER BY started_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.AgentRun
	for rows.Next() {
		var run models.AgentRun
		err := rows.Scan(
			&run.ID,
			&run.CaseID,
			&run.AgentName,
			&run.Status,
			&run.Reasoning,
			&run.Result,
			&run.StartedAt,
			&run.CompletedAt,
			&run.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetLatestCompleted retrieves the most recent completed run of a named
// agent for a case, or pgx.ErrNoRows.
func (r *AgentRunRepository) GetLatestCompleted(ctx context.Context, caseID uuid.UUID, agentName string) (*models.AgentRun, error) {
	run := &models.AgentRun{}
	query := `
		SELECT id, case_id, agent_name, status, reasoning, result,
			started_at, completed_at, error_message
		FROM agent_runs
		WHERE case_id = $1 AND agent_name = $2 AND status = $3
		ORDER BY started_at DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, caseID, agentName, models.RunStatusCompleted).Scan(
		&run.ID,
		&run.CaseID,
		&run.AgentName,
		&run.Status,
		&run.Reasoning,
		&run.Result,
		&run.StartedAt,
		&run.CompletedAt,
		&run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
