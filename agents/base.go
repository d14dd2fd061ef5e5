package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultAgentTimeout bounds a single agent execution attempt
const DefaultAgentTimeout = 300 * time.Second

// Agent is one stage of the pipeline. Execute reads case context, calls the
// LLM, and writes typed memory blocks; the returned result is stored on the
// run row.
type Agent interface {
	Name() string
	Execute(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error)
}

// RunStore is the persistence surface for the append-only run log
type RunStore interface {
	Create(ctx context.Context, run *models.AgentRun) error
	Complete(ctx context.Context, id uuid.UUID, result models.AgentResult, reasoning *string) error
	Fail(ctx context.Context, id uuid.UUID, errorMessage string) error
	UpdateReasoning(ctx context.Context, id uuid.UUID, reasoning string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AgentRun, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.AgentRun, error)
	GetLatestCompleted(ctx context.Context, caseID uuid.UUID, agentName string) (*models.AgentRun, error)
}

// Runner executes agents under the run contract: every attempt gets its own
// run row created as running and finalized exactly once. Finalized rows are
// never mutated; a retry is a brand-new row.
type Runner struct {
	runs    RunStore
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunner creates an agent runner. timeout <= 0 uses the default budget.
func NewRunner(runs RunStore, timeout time.Duration, logger *zap.Logger) *Runner {
	if timeout <= 0 {
		timeout = DefaultAgentTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{runs: runs, timeout: timeout, logger: logger}
}

// Run creates a running AgentRun, executes the agent under the timeout, and
// finalizes the row. Partial writes from a timed-out attempt stay persisted;
// the failed run row records why. The returned run reflects final persisted
// state even when execution failed.
func (r *Runner) Run(ctx context.Context, caseID uuid.UUID, agent Agent) (*models.AgentRun, error) {
	run := &models.AgentRun{CaseID: caseID, AgentName: agent.Name()}
	if err := r.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create agent run: %w", err)
	}

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, execErr := agent.Execute(execCtx, caseID, run.ID)
	if execErr != nil {
		message := execErr.Error()
		if errors.Is(execErr, context.DeadlineExceeded) && execCtx.Err() == context.DeadlineExceeded {
			message = fmt.Sprintf("Timeout after %ds", int(r.timeout.Seconds()))
			r.logger.Warn("agent timed out",
				zap.String("agent", agent.Name()),
				zap.Duration("timeout", r.timeout))
			execErr = fmt.Errorf("agent %s: %s", agent.Name(), message)
		}
		// finalize with a fresh context: the attempt's context may already
		// be dead
		if err := r.runs.Fail(context.WithoutCancel(ctx), run.ID, message); err != nil {
			r.logger.Error("failed to record agent failure",
				zap.String("agent", agent.Name()), zap.Error(err))
		}
		refreshed, err := r.runs.GetByID(ctx, run.ID)
		if err != nil {
			refreshed = run
		}
		return refreshed, execErr
	}

	if err := r.runs.Complete(ctx, run.ID, result, nil); err != nil {
		return nil, fmt.Errorf("failed to record agent completion: %w", err)
	}
	refreshed, err := r.runs.GetByID(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload agent run: %w", err)
	}
	return refreshed, nil
}

// logReasoning updates a run's narration; failures are logged, never fatal
func logReasoning(ctx context.Context, runs RunStore, runID uuid.UUID, logger *zap.Logger, reasoning string) {
	if err := runs.UpdateReasoning(ctx, runID, reasoning); err != nil && logger != nil {
		logger.Warn("failed to update run reasoning", zap.Error(err))
	}
}

// latestResult returns the most recent completed result for a stage, or nil
func latestResult(ctx context.Context, runs RunStore, caseID uuid.UUID, agentName string) models.AgentResult {
	run, err := runs.GetLatestCompleted(ctx, caseID, agentName)
	if err != nil || run == nil {
		return nil
	}
	return run.Result
}
