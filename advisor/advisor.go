// Package advisor provides context-aware conversational advice for a case,
// grounded in its memory blocks.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"caseassist-backend/agents"
	"caseassist-backend/memory"
	"caseassist-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const systemPrompt = `You are a legal advisor for Minnesota Conciliation Court cases. Provide clear, actionable advice based on the case context. Ask clarifying questions when needed. Suggest next steps and identify gaps in the case.`

const (
	// contextMaxChars caps the memory context handed to the LLM,
	// roughly 8k tokens.
	contextMaxChars = 28000

	// historyWindow is how many recent messages accompany each prompt
	historyWindow = 20

	searchLimit          = 30
	fallbackContextLimit = 50
)

// ErrEmptyMessage is returned when a chat message has no content
var ErrEmptyMessage = fmt.Errorf("message must not be empty")

// MemoryReader is the slice of the memory store the advisor reads from
type MemoryReader interface {
	Search(ctx context.Context, query string, scope memory.SearchScope, opts memory.SearchOptions) ([]models.ScoredBlock, error)
	CaseContext(ctx context.Context, caseID uuid.UUID, blockTypes []models.BlockType, limit int) ([]models.MemoryBlock, error)
}

// MessageStore persists and retrieves conversation messages
type MessageStore interface {
	Create(ctx context.Context, msg *models.ConversationMessage) error
	ListByCase(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]models.ConversationMessage, error)
	Recent(ctx context.Context, caseID uuid.UUID, limit int) ([]models.ConversationMessage, error)
	DeleteByCase(ctx context.Context, caseID uuid.UUID) (int64, error)
}

// Advisor answers case questions conversationally, pulling relevant memory
// blocks into the prompt and keeping a per-case chat transcript.
type Advisor struct {
	messages MessageStore
	memory   MemoryReader
	llm      agents.LLMClient
	logger   *zap.Logger
}

func New(messages MessageStore, mem MemoryReader, llm agents.LLMClient, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{messages: messages, memory: mem, llm: llm, logger: logger}
}

// Respond records the user message, builds memory context, asks the LLM,
// and records and returns the assistant reply.
func (a *Advisor) Respond(ctx context.Context, caseID uuid.UUID, message string, includeContext bool) (*models.ConversationMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	userMsg := &models.ConversationMessage{
		CaseID:  caseID,
		Role:    models.MessageRoleUser,
		Content: message,
	}
	if err := a.messages.Create(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}

	var contextStr string
	var typesUsed []string
	if includeContext {
		var err error
		contextStr, typesUsed, err = a.buildContext(ctx, caseID, message)
		if err != nil {
			return nil, fmt.Errorf("failed to build case context: %w", err)
		}
	}

	history, err := a.messages.Recent(ctx, caseID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	system := systemPrompt
	if contextStr != "" {
		system += "\n\n## Case context (use this to inform your advice)\n\n" + contextStr
	}

	reply, err := a.llm.Generate(ctx, system, formatTranscript(history))
	if err != nil {
		return nil, fmt.Errorf("advisor generation failed: %w", err)
	}

	assistantMsg := &models.ConversationMessage{
		CaseID:      caseID,
		Role:        models.MessageRoleAssistant,
		Content:     reply,
		ContextUsed: typesUsed,
	}
	if err := a.messages.Create(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to record assistant message: %w", err)
	}

	a.logger.Info("advisor replied",
		zap.String("case_id", caseID.String()),
		zap.Strings("context_used", typesUsed))
	return assistantMsg, nil
}

// SuggestedQuestions returns the content of question blocks for the case,
// for the UI to offer as conversation starters.
func (a *Advisor) SuggestedQuestions(ctx context.Context, caseID uuid.UUID, limit int) ([]string, error) {
	blocks, err := a.memory.CaseContext(ctx, caseID, []models.BlockType{models.BlockTypeQuestion}, limit)
	if err != nil {
		return nil, err
	}
	questions := []string{}
	for _, b := range blocks {
		if q := strings.TrimSpace(b.Content); q != "" {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// History returns conversation messages for the case, newest first
func (a *Advisor) History(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]models.ConversationMessage, error) {
	return a.messages.ListByCase(ctx, caseID, limit, offset)
}

// ClearHistory removes the case's conversation, returning how many messages
// were deleted.
func (a *Advisor) ClearHistory(ctx context.Context, caseID uuid.UUID) (int64, error) {
	return a.messages.DeleteByCase(ctx, caseID)
}

// buildContext assembles a memory context string for the prompt. The query
// drives a case-scoped similarity search; when it matches nothing the
// advisor falls back to the case's recent blocks. Returns the formatted
// context and the block types it drew from.
func (a *Advisor) buildContext(ctx context.Context, caseID uuid.UUID, query string) (string, []string, error) {
	var blocks []models.MemoryBlock

	scored, err := a.memory.Search(ctx, query, memory.SearchScope{CaseID: &caseID}, memory.SearchOptions{Limit: searchLimit})
	if err != nil {
		return "", nil, err
	}
	for _, s := range scored {
		if s.Block != nil {
			blocks = append(blocks, *s.Block)
		}
	}

	if len(blocks) == 0 {
		blocks, err = a.memory.CaseContext(ctx, caseID, nil, fallbackContextLimit)
		if err != nil {
			return "", nil, err
		}
	}
	if len(blocks) == 0 {
		return "", nil, nil
	}

	seen := make(map[string]bool)
	var typesUsed []string
	for _, b := range blocks {
		t := string(b.BlockType)
		if !seen[t] {
			seen[t] = true
			typesUsed = append(typesUsed, t)
		}
	}

	formatted := memory.FormatContext(blocks)
	if len(formatted) > contextMaxChars {
		formatted = memory.TruncateForContext(formatted, contextMaxChars)
	}
	return formatted, typesUsed, nil
}

// formatTranscript flattens the chat history into a single prompt, labeled
// by role, ending with the latest user message.
func formatTranscript(history []models.ConversationMessage) string {
	var b strings.Builder
	for _, m := range history {
		switch m.Role {
		case models.MessageRoleUser:
			b.WriteString("User: ")
		case models.MessageRoleAssistant:
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}
