package agents

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
)

const (
	// DefaultLLMModel balances cost and quality for structured extraction
	DefaultLLMModel = "gemini-2.0-flash"

	defaultTemperature = 0.2

	// maxPromptChars keeps prompts inside the model context window
	maxPromptChars = 30000
)

// LLMClient produces a text completion for a system prompt and user message.
// Agents depend on this interface so tests can supply canned responses.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// GeminiClient implements LLMClient on top of the Google generative AI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(client *genai.Client, model string) *GeminiClient {
	if model == "" {
		model = DefaultLLMModel
	}
	return &GeminiClient{client: client, model: model}
}

func (g *GeminiClient) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(defaultTemperature)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	if len(userMessage) > maxPromptChars {
		cut := maxPromptChars
		for cut > 0 && !utf8.RuneStart(userMessage[cut]) {
			cut--
		}
		userMessage = userMessage[:cut]
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userMessage))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini generate: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini generate: no text parts in response")
	}
	return sb.String(), nil
}
