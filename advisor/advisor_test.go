package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"caseassist-backend/memory"
	"caseassist-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageStore struct {
	messages []models.ConversationMessage
	failOn   models.MessageRole
}

func (f *fakeMessageStore) Create(ctx context.Context, msg *models.ConversationMessage) error {
	if f.failOn != "" && msg.Role == f.failOn {
		return errors.New("database unavailable")
	}
	msg.ID = uuid.New()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageStore) ListByCase(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]models.ConversationMessage, error) {
	var out []models.ConversationMessage
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].CaseID == caseID {
			out = append(out, f.messages[i])
		}
	}
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageStore) Recent(ctx context.Context, caseID uuid.UUID, limit int) ([]models.ConversationMessage, error) {
	var out []models.ConversationMessage
	for _, m := range f.messages {
		if m.CaseID == caseID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeMessageStore) DeleteByCase(ctx context.Context, caseID uuid.UUID) (int64, error) {
	var kept []models.ConversationMessage
	var deleted int64
	for _, m := range f.messages {
		if m.CaseID == caseID {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	f.messages = kept
	return deleted, nil
}

type fakeMemoryReader struct {
	searchResults []models.ScoredBlock
	contextBlocks []models.MemoryBlock

	searchQueries []string
	contextTypes  [][]models.BlockType
}

func (f *fakeMemoryReader) Search(ctx context.Context, query string, scope memory.SearchScope, opts memory.SearchOptions) ([]models.ScoredBlock, error) {
	f.searchQueries = append(f.searchQueries, query)
	return f.searchResults, nil
}

func (f *fakeMemoryReader) CaseContext(ctx context.Context, caseID uuid.UUID, blockTypes []models.BlockType, limit int) ([]models.MemoryBlock, error) {
	f.contextTypes = append(f.contextTypes, blockTypes)
	out := f.contextBlocks
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeLLM struct {
	reply      string
	systemSeen string
	userSeen   string
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	f.systemSeen = systemPrompt
	f.userSeen = userMessage
	if f.reply == "" {
		return "You should gather your lease and payment records.", nil
	}
	return f.reply, nil
}

func scoredFact(content string) models.ScoredBlock {
	return models.ScoredBlock{
		Block: &models.MemoryBlock{
			ID:        uuid.New(),
			BlockType: models.BlockTypeFact,
			Content:   content,
		},
		Similarity: 0.9,
	}
}

func TestRespondRecordsBothTurnsWithContext(t *testing.T) {
	store := &fakeMessageStore{}
	mem := &fakeMemoryReader{searchResults: []models.ScoredBlock{
		scoredFact("Lease ended June 30; deposit was $1,500."),
	}}
	llm := &fakeLLM{}
	a := New(store, mem, llm, nil)

	caseID := uuid.New()
	reply, err := a.Respond(context.Background(), caseID, "How do I get my deposit back?", true)
	require.NoError(t, err)

	require.Len(t, store.messages, 2)
	assert.Equal(t, models.MessageRoleUser, store.messages[0].Role)
	assert.Equal(t, models.MessageRoleAssistant, store.messages[1].Role)
	assert.Equal(t, reply.Content, store.messages[1].Content)
	assert.Equal(t, []string{"fact"}, reply.ContextUsed)

	// Context blocks reach the LLM via the system prompt
	assert.Contains(t, llm.systemSeen, "Lease ended June 30")
	assert.Contains(t, llm.userSeen, "How do I get my deposit back?")
}

func TestRespondWithoutContextSkipsMemory(t *testing.T) {
	store := &fakeMessageStore{}
	mem := &fakeMemoryReader{searchResults: []models.ScoredBlock{
		scoredFact("Lease ended June 30."),
	}}
	llm := &fakeLLM{}
	a := New(store, mem, llm, nil)

	reply, err := a.Respond(context.Background(), uuid.New(), "Thanks!", false)
	require.NoError(t, err)
	assert.Empty(t, mem.searchQueries)
	assert.Empty(t, reply.ContextUsed)
	assert.NotContains(t, llm.systemSeen, "Case context")
}

func TestRespondFallsBackToCaseContext(t *testing.T) {
	store := &fakeMessageStore{}
	mem := &fakeMemoryReader{contextBlocks: []models.MemoryBlock{
		{ID: uuid.New(), BlockType: models.BlockTypeEvidence, Content: "Move-out photos dated July 1."},
	}}
	a := New(store, mem, &fakeLLM{}, nil)

	reply, err := a.Respond(context.Background(), uuid.New(), "What evidence do I have?", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"evidence"}, reply.ContextUsed)
}

func TestRespondRejectsEmptyMessage(t *testing.T) {
	a := New(&fakeMessageStore{}, &fakeMemoryReader{}, &fakeLLM{}, nil)

	_, err := a.Respond(context.Background(), uuid.New(), "   ", true)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestRespondIncludesConversationHistory(t *testing.T) {
	store := &fakeMessageStore{}
	llm := &fakeLLM{}
	a := New(store, &fakeMemoryReader{}, llm, nil)

	caseID := uuid.New()
	_, err := a.Respond(context.Background(), caseID, "First question", true)
	require.NoError(t, err)
	_, err = a.Respond(context.Background(), caseID, "Second question", true)
	require.NoError(t, err)

	assert.Contains(t, llm.userSeen, "First question")
	assert.Contains(t, llm.userSeen, "Second question")
	assert.True(t, strings.HasSuffix(llm.userSeen, "Assistant:"))
}

func TestSuggestedQuestionsFiltersEmptyContent(t *testing.T) {
	mem := &fakeMemoryReader{contextBlocks: []models.MemoryBlock{
		{ID: uuid.New(), BlockType: models.BlockTypeQuestion, Content: "  When did you move out?  "},
		{ID: uuid.New(), BlockType: models.BlockTypeQuestion, Content: "   "},
	}}
	a := New(&fakeMessageStore{}, mem, &fakeLLM{}, nil)

	questions, err := a.SuggestedQuestions(context.Background(), uuid.New(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"When did you move out?"}, questions)

	require.Len(t, mem.contextTypes, 1)
	assert.Equal(t, []models.BlockType{models.BlockTypeQuestion}, mem.contextTypes[0])
}

func TestClearHistoryReportsDeletedCount(t *testing.T) {
	store := &fakeMessageStore{}
	a := New(store, &fakeMemoryReader{}, &fakeLLM{}, nil)

	caseID := uuid.New()
	_, err := a.Respond(context.Background(), caseID, "Hello", false)
	require.NoError(t, err)

	deleted, err := a.ClearHistory(context.Background(), caseID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	history, err := a.History(context.Background(), caseID, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}
