package agents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"caseassist-backend/memory"
	"caseassist-backend/models"
	"caseassist-backend/rules"

	"github.com/google/uuid"
)

type fakeRunStore struct {
	mu   sync.Mutex
	runs []*models.AgentRun
}

func newFakeRunStore() *fakeRunStore { return &fakeRunStore{} }

func (f *fakeRunStore) Create(ctx context.Context, run *models.AgentRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = uuid.New()
	run.Status = models.RunStatusRunning
	run.StartedAt = time.Now()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRunStore) find(id uuid.UUID) *models.AgentRun {
	for _, r := range f.runs {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (f *fakeRunStore) Complete(ctx context.Context, id uuid.UUID, result models.AgentResult, reasoning *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.find(id)
	if run == nil {
		return fmt.Errorf("run not found")
	}
	now := time.Now()
	run.Status = models.RunStatusCompleted
	run.Result = result
	run.CompletedAt = &now
	if reasoning != nil {
		run.Reasoning = reasoning
	}
	return nil
}

func (f *fakeRunStore) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.find(id)
	if run == nil {
		return fmt.Errorf("run not found")
	}
	now := time.Now()
	run.Status = models.RunStatusFailed
	run.ErrorMessage = &errorMessage
	run.CompletedAt = &now
	return nil
}

func (f *fakeRunStore) UpdateReasoning(ctx context.Context, id uuid.UUID, reasoning string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.find(id)
	if run == nil {
		return fmt.Errorf("run not found")
	}
	run.Reasoning = &reasoning
	return nil
}

func (f *fakeRunStore) GetByID(ctx context.Context, id uuid.UUID) (*models.AgentRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.find(id)
	if run == nil {
		return nil, fmt.Errorf("run not found")
	}
	copied := *run
	return &copied, nil
}

func (f *fakeRunStore) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.AgentRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AgentRun
	for _, r := range f.runs {
		if r.CaseID == caseID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRunStore) GetLatestCompleted(ctx context.Context, caseID uuid.UUID, agentName string) (*models.AgentRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.runs) - 1; i >= 0; i-- {
		r := f.runs[i]
		if r.CaseID == caseID && r.AgentName == agentName && r.Status == models.RunStatusCompleted {
			copied := *r
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("no completed run")
}

type stubAgent struct {
	name    string
	execute func(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error)
	calls   int
}

func (a *stubAgent) Name() string { return a.name }

func (a *stubAgent) Execute(ctx context.Context, caseID, runID uuid.UUID) (models.AgentResult, error) {
	a.calls++
	if a.execute != nil {
		return a.execute(ctx, caseID, runID)
	}
	return models.AgentResult{"ok": true}, nil
}

type recordedEvent struct {
	caseID uuid.UUID
	event  AgentEvent
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
	states []WorkflowState
}

func (b *recordingBroadcaster) BroadcastAgentStatus(caseID uuid.UUID, event AgentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{caseID: caseID, event: event})
}

func (b *recordingBroadcaster) BroadcastWorkflowState(caseID uuid.UUID, state WorkflowState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states = append(b.states, state)
}

// fakeMemory records created blocks and serves canned context/search results.
type fakeMemory struct {
	created     []*models.MemoryBlock
	context     map[models.BlockType][]models.MemoryBlock
	searchHits  []models.ScoredBlock
	linkedPairs map[uuid.UUID][]uuid.UUID
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{
		context:     map[models.BlockType][]models.MemoryBlock{},
		linkedPairs: map[uuid.UUID][]uuid.UUID{},
	}
}

func (f *fakeMemory) CreateBlock(ctx context.Context, sessionID uuid.UUID, blockType models.BlockType, content string, metadata models.BlockMetadata) (*models.MemoryBlock, error) {
	block := &models.MemoryBlock{
		ID:        uuid.New(),
		SessionID: sessionID,
		BlockType: blockType,
		Content:   content,
		Metadata:  metadata,
	}
	f.created = append(f.created, block)
	return block, nil
}

func (f *fakeMemory) CaseContext(ctx context.Context, caseID uuid.UUID, blockTypes []models.BlockType, limit int) ([]models.MemoryBlock, error) {
	var out []models.MemoryBlock
	for _, bt := range blockTypes {
		out = append(out, f.context[bt]...)
	}
	return out, nil
}

func (f *fakeMemory) Search(ctx context.Context, query string, scope memory.SearchScope, opts memory.SearchOptions) ([]models.ScoredBlock, error) {
	return f.searchHits, nil
}

func (f *fakeMemory) LinkBlocks(ctx context.Context, id uuid.UUID, relatedIDs []uuid.UUID) (*models.MemoryBlock, error) {
	f.linkedPairs[id] = relatedIDs
	return &models.MemoryBlock{ID: id}, nil
}

func (f *fakeMemory) createdOfType(bt models.BlockType) []*models.MemoryBlock {
	var out []*models.MemoryBlock
	for _, b := range f.created {
		if b.BlockType == bt {
			out = append(out, b)
		}
	}
	return out
}

type fakeSessions struct {
	session *models.Session
}

func (f *fakeSessions) GetOrCreate(ctx context.Context, caseID uuid.UUID) (*models.Session, error) {
	if f.session == nil {
		f.session = &models.Session{ID: uuid.New(), CaseID: caseID, SessionNumber: 1, Status: models.SessionStatusActive}
	}
	return f.session, nil
}

type fakeCases struct {
	c         *models.Case
	generated string
}

func (f *fakeCases) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	if f.c == nil {
		return nil, fmt.Errorf("case not found")
	}
	return f.c, nil
}

func (f *fakeCases) SetGeneratedContent(ctx context.Context, id uuid.UUID, content string) error {
	f.generated = content
	return nil
}

type fakeDocuments struct {
	docs      []models.Document
	processed []uuid.UUID
}

func (f *fakeDocuments) ListUnprocessed(ctx context.Context, caseID uuid.UUID, limit int) ([]models.Document, error) {
	var out []models.Document
	for _, d := range f.docs {
		if !d.Processed {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocuments) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	return nil
}

type fakeRuleSearcher struct {
	result *rules.HybridResult
	query  string
}

func (f *fakeRuleSearcher) HybridSearch(ctx context.Context, query string, includeStatic, includeCaseLaw bool, limit int) (*rules.HybridResult, error) {
	f.query = query
	if f.result == nil {
		return &rules.HybridResult{StaticRules: []rules.StaticRule{}, CaseLaw: []models.ScoredRule{}}, nil
	}
	return f.result, nil
}

type fakeLLM struct {
	response string
	err      error
	system   string
	message  string
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	f.system = systemPrompt
	f.message = userMessage
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}
