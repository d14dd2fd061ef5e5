package repository

import (
	"fmt"
	"strings"
)

// Dimensions of all stored embeddings. Vector columns are declared with this
// size and queries are rejected early when the query vector does not match.
const EmbeddingDimensions = 1536

// formatVector formats an embedding vector as a pgvector literal for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func validateEmbedding(embedding []float64) error {
	if len(embedding) != EmbeddingDimensions {
		return fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimensions, len(embedding))
	}
	return nil
}
