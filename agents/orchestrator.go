package agents

import (
	"context"
	"fmt"
	"time"

	"caseassist-backend/models"
	"caseassist-backend/retry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxRetries bounds how many attempts each stage gets
const DefaultMaxRetries = 3

// ErrUnknownAgent is returned when a requested stage name is not registered
var ErrUnknownAgent = fmt.Errorf("unknown agent")

// Orchestrator drives the fixed pipeline over a case: each stage runs in
// order, with retries, and subscribers get progress broadcasts. All state is
// derived from the run log, so a crashed workflow resumes by skipping the
// stages that already completed.
type Orchestrator struct {
	agents      map[string]Agent
	runner      *Runner
	runs        RunStore
	broadcaster Broadcaster
	maxRetries  int
	retryPolicy retry.Policy
	logger      *zap.Logger
}

func NewOrchestrator(runner *Runner, runs RunStore, broadcaster Broadcaster, maxRetries int, logger *zap.Logger) *Orchestrator {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		agents:      map[string]Agent{},
		runner:      runner,
		runs:        runs,
		broadcaster: broadcaster,
		maxRetries:  maxRetries,
		retryPolicy: retry.Policy{MaxAttempts: maxRetries},
		logger:      logger,
	}
}

// Register adds an agent under its stage name
func (o *Orchestrator) Register(agent Agent) {
	o.agents[agent.Name()] = agent
}

// State derives the current workflow state from the run log
func (o *Orchestrator) State(ctx context.Context, caseID uuid.UUID) (WorkflowState, error) {
	runs, err := o.runs.ListByCase(ctx, caseID)
	if err != nil {
		return WorkflowState{}, fmt.Errorf("failed to load agent runs: %w", err)
	}
	return DeriveState(caseID, runs), nil
}

// ExecuteWorkflow runs every pipeline stage in order. Stages that already
// completed are skipped unless forceRestart is set; force restart never
// deletes prior run rows, it only clears the resumption set. Each stage gets
// up to maxRetries attempts with exponential backoff between them, every
// attempt on a fresh run row; a stage that exhausts its attempts stops the
// workflow and the error surfaces to the caller. Unregistered stage names
// are logged and skipped.
//
// The returned state is the workflow's own view of its pass: stages it
// completed this pass plus prior completions it resumed over. Rows from
// attempts that failed before a successful retry stay in the log but do not
// mark the pass failed.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, caseID uuid.UUID, forceRestart bool) (WorkflowState, error) {
	state, err := o.State(ctx, caseID)
	if err != nil {
		return WorkflowState{}, err
	}
	if forceRestart {
		state.CompletedAgents = []string{}
		state.AgentResults = map[string]models.AgentResult{}
		state.WorkflowStatus = WorkflowPending
		state.CurrentAgent = ""
		state.Error = ""
	}
	completed := map[string]bool{}
	for _, name := range state.CompletedAgents {
		completed[name] = true
	}

	total := len(WorkflowStages)
	for i, stage := range WorkflowStages {
		if completed[stage] {
			o.logger.Info("skipping completed stage",
				zap.String("case_id", caseID.String()), zap.String("agent", stage))
			continue
		}
		agent, ok := o.agents[stage]
		if !ok {
			o.logger.Warn("no agent registered for stage; skipping",
				zap.String("agent", stage))
			continue
		}

		var lastErr error
		for attempt := 0; attempt < o.maxRetries; attempt++ {
			if attempt > 0 {
				delay := o.retryPolicy.Delay(attempt - 1)
				o.logger.Info("retrying stage",
					zap.String("agent", stage),
					zap.Int("attempt", attempt+1),
					zap.Duration("delay", delay))
				select {
				case <-ctx.Done():
					return state, ctx.Err()
				case <-time.After(delay):
				}
			}

			o.broadcaster.BroadcastAgentStatus(caseID, AgentEvent{
				AgentName: stage,
				Status:    "running",
				Progress:  i * 100 / total,
			})

			run, err := o.runner.Run(ctx, caseID, agent)
			if err == nil {
				state.CompletedAgents = append(state.CompletedAgents, stage)
				if run != nil && run.Result != nil {
					state.AgentResults[stage] = run.Result
				}
				state.CurrentAgent = ""
				o.broadcaster.BroadcastAgentStatus(caseID, AgentEvent{
					AgentName: stage,
					Status:    "completed",
					Progress:  (i + 1) * 100 / total,
				})
				o.broadcaster.BroadcastWorkflowState(caseID, state)
				lastErr = nil
				break
			}

			lastErr = err
			o.logger.Warn("stage attempt failed",
				zap.String("agent", stage),
				zap.Int("attempt", attempt+1),
				zap.Error(err))

			if attempt == o.maxRetries-1 {
				state.WorkflowStatus = WorkflowFailed
				state.Error = err.Error()
				o.broadcaster.BroadcastAgentStatus(caseID, AgentEvent{
					AgentName: stage,
					Status:    "failed",
					Reasoning: err.Error(),
				})
				o.broadcaster.BroadcastWorkflowState(caseID, state)
				return state, fmt.Errorf("workflow stage %s: %w", stage, err)
			}
			if ctx.Err() != nil {
				return state, lastErr
			}
		}
	}

	state.WorkflowStatus = WorkflowCompleted
	o.broadcaster.BroadcastWorkflowState(caseID, state)
	return state, nil
}

// ExecuteSingleAgent runs one stage once, outside the workflow loop. Unlike
// the batch loop there are no retries, and an unregistered name is an error.
func (o *Orchestrator) ExecuteSingleAgent(ctx context.Context, caseID uuid.UUID, agentName string) (WorkflowState, error) {
	agent, ok := o.agents[agentName]
	if !ok {
		return WorkflowState{}, fmt.Errorf("%w: %s", ErrUnknownAgent, agentName)
	}

	o.broadcaster.BroadcastAgentStatus(caseID, AgentEvent{
		AgentName: agentName,
		Status:    "running",
		Progress:  0,
	})

	run, err := o.runner.Run(ctx, caseID, agent)
	if err != nil {
		return WorkflowState{}, err
	}

	reasoning := ""
	if run != nil && run.Reasoning != nil {
		reasoning = *run.Reasoning
	}
	o.broadcaster.BroadcastAgentStatus(caseID, AgentEvent{
		AgentName: agentName,
		Status:    "completed",
		Reasoning: reasoning,
		Progress:  100,
	})

	state, err := o.State(ctx, caseID)
	if err != nil {
		return WorkflowState{}, err
	}
	o.broadcaster.BroadcastWorkflowState(caseID, state)
	return state, nil
}
