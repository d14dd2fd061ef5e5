package rules

import (
	"context"
	"fmt"

	"caseassist-backend/models"

	"go.uber.org/zap"
)

// DefaultMinSimilarity is the similarity floor applied to semantic rule
// searches unless the caller disables it.
const DefaultMinSimilarity = 0.7

// Embedder generates query embeddings for semantic search
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Store is the persistence surface the retriever needs
type Store interface {
	Search(ctx context.Context, embedding []float64, ruleTypes []models.RuleType, minSimilarity float64, limit int) ([]models.ScoredRule, error)
	ListByType(ctx context.Context, ruleTypes []models.RuleType) ([]models.Rule, error)
	CreateBatch(ctx context.Context, rules []*models.Rule) error
	HasStatuteRules(ctx context.Context) (bool, error)
}

// HybridResult combines keyword matches over the static corpus with
// semantically retrieved case law.
type HybridResult struct {
	StaticRules []StaticRule        `json:"static_rules"`
	CaseLaw     []models.ScoredRule `json:"case_law"`
}

// Retriever combines static rule lookup with semantic search over the
// embedded rule store.
type Retriever struct {
	store    Store
	embedder Embedder
	logger   *zap.Logger
}

// NewRetriever creates a rule retriever
func NewRetriever(store Store, embedder Embedder, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{store: store, embedder: embedder, logger: logger}
}

// SearchRules performs a semantic search over stored rules, most similar
// first. A zero minSimilarity applies DefaultMinSimilarity; a negative value
// disables the floor entirely.
func (r *Retriever) SearchRules(ctx context.Context, query string, ruleTypes []models.RuleType, limit int, minSimilarity float64) ([]models.ScoredRule, error) {
	if minSimilarity == 0 {
		minSimilarity = DefaultMinSimilarity
	}
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed rule query: %w", err)
	}
	return r.store.Search(ctx, embedding, ruleTypes, minSimilarity, limit)
}

// HybridSearch runs the keyword search over the static corpus and a
// floor-free semantic search over case law and interpretations, so agents
// always see the closest precedent even when nothing scores highly.
func (r *Retriever) HybridSearch(ctx context.Context, query string, includeStatic, includeCaseLaw bool, limit int) (*HybridResult, error) {
	if limit <= 0 {
		limit = 10
	}
	result := &HybridResult{
		StaticRules: []StaticRule{},
		CaseLaw:     []models.ScoredRule{},
	}

	if includeStatic {
		matches := SearchStatic(query)
		if len(matches) > limit {
			matches = matches[:limit]
		}
		result.StaticRules = matches
	}

	if includeCaseLaw {
		caseLaw, err := r.SearchRules(ctx, query,
			[]models.RuleType{models.RuleTypeCaseLaw, models.RuleTypeInterpretation},
			limit, -1)
		if err != nil {
			return nil, err
		}
		result.CaseLaw = caseLaw
	}
	return result, nil
}

// JurisdictionRules returns stored statute rules tagged with the
// jurisdiction category.
func (r *Retriever) JurisdictionRules(ctx context.Context) ([]models.Rule, error) {
	statutes, err := r.store.ListByType(ctx, []models.RuleType{models.RuleTypeStatute})
	if err != nil {
		return nil, err
	}
	var out []models.Rule
	for _, rule := range statutes {
		if cat, _ := rule.Metadata["category"].(string); cat == "jurisdiction" {
			out = append(out, rule)
		}
	}
	return out, nil
}

// ProcedureRules returns stored procedure rules, optionally filtered by the
// procedure_type metadata field.
func (r *Retriever) ProcedureRules(ctx context.Context, procedureType string) ([]models.Rule, error) {
	procedures, err := r.store.ListByType(ctx, []models.RuleType{models.RuleTypeProcedure})
	if err != nil {
		return nil, err
	}
	if procedureType == "" {
		return procedures, nil
	}
	var out []models.Rule
	for _, rule := range procedures {
		if pt, _ := rule.Metadata["procedure_type"].(string); pt == procedureType {
			out = append(out, rule)
		}
	}
	return out, nil
}

// InitializeStaticRules loads the Minnesota corpus into the rule store with
// generated embeddings. It is idempotent: if statute rules are already
// present nothing is loaded. Returns the number of rules added.
func (r *Retriever) InitializeStaticRules(ctx context.Context) (int, error) {
	exists, err := r.store.HasStatuteRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing rules: %w", err)
	}
	if exists {
		r.logger.Info("static rules already loaded, skipping")
		return 0, nil
	}

	static := AllStaticRules()
	contents := make([]string, len(static))
	for i, s := range static {
		contents[i] = s.Content
	}
	embeddings, err := r.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return 0, fmt.Errorf("failed to embed static rules: %w", err)
	}

	toAdd := make([]*models.Rule, len(static))
	for i, s := range static {
		metadata := make(models.RuleMetadataJSON, len(s.Metadata)+1)
		for k, v := range s.Metadata {
			metadata[k] = v
		}
		metadata["category"] = s.Category
		toAdd[i] = &models.Rule{
			RuleType:  ruleTypeForCategory(s.Category),
			Source:    s.Source,
			Title:     s.Title,
			Content:   s.Content,
			Embedding: embeddings[i],
			Metadata:  metadata,
		}
	}
	if err := r.store.CreateBatch(ctx, toAdd); err != nil {
		return 0, fmt.Errorf("failed to store static rules: %w", err)
	}
	r.logger.Info("loaded static rule corpus", zap.Int("count", len(toAdd)))
	return len(toAdd), nil
}
