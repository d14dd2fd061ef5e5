package repository

import (
	"context"
	"fmt"

	"caseassist-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RuleRepository handles database operations for legal rules
type RuleRepository struct {
	db *pgxpool.Pool
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{db: db}
}

// Create inserts a rule with its embedding
func (r *RuleRepository) Create(ctx context.Context, rule *models.Rule) error {
	if err := validateEmbedding(rule.Embedding); err != nil {
		return err
	}
	query := `
		INSERT INTO rules (rule_type, source, title, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5::vector, $6)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		rule.RuleType,
		rule.Source,
		rule.Title,
		rule.Content,
		formatVector(rule.Embedding),
		rule.Metadata,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

// CreateBatch inserts rules one at a time inside a transaction
func (r *RuleRepository) CreateBatch(ctx context.Context, rules []*models.Rule) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO rules (rule_type, source, title, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5::vector, $6)
		RETURNING id, created_at, updated_at`

	for _, rule := range rules {
		if err := validateEmbedding(rule.Embedding); err != nil {
			return fmt.Errorf("rule %q: %w", rule.Title, err)
		}
		err := tx.QueryRow(
			ctx, query,
			rule.RuleType,
			rule.Source,
			rule.Title,
			rule.Content,
			formatVector(rule.Embedding),
			rule.Metadata,
		).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert rule %q: %w", rule.Title, err)
		}
	}
	return tx.Commit(ctx)
}

// HasStatuteRules reports whether statute rules from the static corpus are
// already loaded.
func (r *RuleRepository) HasStatuteRules(ctx context.Context) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM rules WHERE rule_type = $1 AND source LIKE 'MN Stat.%')`
	err := r.db.QueryRow(ctx, query, models.RuleTypeStatute).Scan(&exists)
	return exists, err
}

// ListByType retrieves rules of the given types. The stored embeddings are
// not loaded.
func (r *RuleRepository) ListByType(ctx context.Context, ruleTypes []models.RuleType) ([]models.Rule, error) {
	types := make([]string, len(ruleTypes))
	for i, rt := range ruleTypes {
		types[i] = string(rt)
	}
	query := `
		SELECT id, rule_type, source, title, content, metadata, created_at, updated_at
		FROM rules
		WHERE rule_type = ANY($1)
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, types)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		var rule models.Rule
		err := rows.Scan(
			&rule.ID,
			&rule.RuleType,
			&rule.Source,
			&rule.Title,
			&rule.Content,
			&rule.Metadata,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Search performs a cosine similarity search over rules, most similar first.
// ruleTypes is optional; minSimilarity <= 0 disables the floor.
func (r *RuleRepository) Search(ctx context.Context, embedding []float64, ruleTypes []models.RuleType, minSimilarity float64, limit int) ([]models.ScoredRule, error) {
	if err := validateEmbedding(embedding); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	args := []interface{}{formatVector(embedding)}
	conditions := "TRUE"
	if len(ruleTypes) > 0 {
		types := make([]string, len(ruleTypes))
		for i, rt := range ruleTypes {
			types[i] = string(rt)
		}
		args = append(args, types)
		conditions = fmt.Sprintf("rule_type = ANY($%d)", len(args))
	}
	if minSimilarity > 0 {
		args = append(args, minSimilarity)
		conditions += fmt.Sprintf(" AND (1 - (embedding <=> $1::vector)) >= $%d", len(args))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, rule_type, source, title, content, metadata, created_at, updated_at,
			1 - (embedding <=> $1::vector) AS similarity
		FROM rules
		WHERE %s
		ORDER BY embedding <=> $1::vector ASC
		LIMIT $%d`, conditions, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search rules: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredRule
	for rows.Next() {
		sr := models.ScoredRule{Rule: &models.Rule{}}
		err := rows.Scan(
			&sr.Rule.ID,
			&sr.Rule.RuleType,
			&sr.Rule.Source,
			&sr.Rule.Title,
			&sr.Rule.Content,
			&sr.Rule.Metadata,
			&sr.Rule.CreatedAt,
			&sr.Rule.UpdatedAt,
			&sr.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule result: %w", err)
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}
