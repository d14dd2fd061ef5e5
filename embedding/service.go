package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"caseassist-backend/retry"

	"go.uber.org/zap"
)

const (
	// Dimensions is the fixed output dimensionality of every embedding.
	Dimensions = 1536

	DefaultModel   = "text-embedding-3-small"
	DefaultBaseURL = "https://api.openai.com/v1"

	// Token-limit safety margin: the model accepts 8191 tokens; budget
	// 8000 tokens at ~4 chars per token.
	maxInputChars = 32000

	// Provider cap is 2048 inputs per request; keep batches well under it.
	maxBatchSize = 100
)

// ErrEmptyInput is returned when a single-item embed call receives empty or
// whitespace-only text.
var ErrEmptyInput = errors.New("cannot embed empty text")

// Service generates fixed-dimension embeddings via an OpenAI-compatible API
type Service struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	policy  retry.Policy
	logger  *zap.Logger
}

// NewService creates an embedding service. An empty baseURL falls back to the
// OpenAI endpoint.
func NewService(baseURL, apiKey string, logger *zap.Logger) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   DefaultModel,
		client:  &http.Client{Timeout: 30 * time.Second},
		policy:  retry.Policy{MaxAttempts: 3, BaseDelay: time.Second},
		logger:  logger,
	}
}

// preprocess trims whitespace and truncates to the model's input budget.
// Returns "" for unusable input.
func preprocess(text string) string {
	text = strings.TrimSpace(text)
	return truncateRunes(text, maxInputChars)
}

// truncateRunes cuts text to at most max bytes without splitting a UTF-8
// sequence.
func truncateRunes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// ZeroVector returns an all-zero embedding of the service dimensionality
func ZeroVector() []float64 {
	return make([]float64, Dimensions)
}

// embedRequest matches the OpenAI embeddings API format
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse matches the OpenAI embeddings API format
type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed generates a single embedding. Empty or whitespace input is rejected
// with ErrEmptyInput; transient provider failures are retried with
// exponential backoff before the last error propagates.
func (s *Service) Embed(ctx context.Context, text string) ([]float64, error) {
	processed := preprocess(text)
	if processed == "" {
		return nil, ErrEmptyInput
	}
	vectors, err := s.embedWithRetry(ctx, []string{processed})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts. The returned slice
// always has the same length and order as the input: empty items get a zero
// vector instead of failing the batch. Inputs are chunked into provider calls
// of at most 100 items each.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	results := make([][]float64, len(texts))
	var processed []string
	var indices []int
	for i, t := range texts {
		p := preprocess(t)
		if p == "" {
			results[i] = ZeroVector()
			continue
		}
		processed = append(processed, p)
		indices = append(indices, i)
	}

	for start := 0; start < len(processed); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(processed) {
			end = len(processed)
		}
		vectors, err := s.embedWithRetry(ctx, processed[start:end])
		if err != nil {
			return nil, err
		}
		for j, vec := range vectors {
			results[indices[start+j]] = vec
		}
	}
	return results, nil
}

func (s *Service) embedWithRetry(ctx context.Context, inputs []string) ([][]float64, error) {
	return retry.Do(ctx, s.policy, func(ctx context.Context) ([][]float64, error) {
		return s.callAPI(ctx, inputs)
	})
}

// callAPI performs one provider call. Ordering of the returned vectors uses
// the provider's per-item index, not response order.
func (s *Service) callAPI(ctx context.Context, inputs []string) ([][]float64, error) {
	reqBody := embedRequest{Model: s.model, Input: inputs}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("failed to call embedding API: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, retry.RateLimited(apiErr)
		case resp.StatusCode >= 500:
			return nil, retry.Transient(apiErr)
		default:
			return nil, retry.Permanent(apiErr)
		}
	}

	var apiResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, retry.Transient(fmt.Errorf("failed to decode response: %w", err))
	}
	if len(apiResp.Data) != len(inputs) {
		return nil, retry.Transient(fmt.Errorf("embedding API returned %d vectors for %d inputs", len(apiResp.Data), len(inputs)))
	}

	vectors := make([][]float64, len(inputs))
	for _, d := range apiResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, retry.Transient(fmt.Errorf("embedding API returned out-of-range index %d", d.Index))
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, retry.Transient(fmt.Errorf("embedding API response missing index %d", i))
		}
	}
	return vectors, nil
}
