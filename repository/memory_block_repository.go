package repository

import (
	"context"
	"fmt"
	"strings"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MemoryBlockRepository handles database operations for memory blocks
type MemoryBlockRepository struct {
	db *pgxpool.Pool
}

// NewMemoryBlockRepository creates a new memory block repository
func NewMemoryBlockRepository(db *pgxpool.Pool) *MemoryBlockRepository {
	return &MemoryBlockRepository{db: db}
}

// Create inserts a memory block with its embedding
func (r *MemoryBlockRepository) Create(ctx context.Context, block *models.MemoryBlock) error {
	if err := validateEmbedding(block.Embedding); err != nil {
		return err
	}
	query := `
		INSERT INTO memory_blocks (session_id, block_type, content, embedding, metadata)
		VALUES ($1, $2, $3, $4::vector, $5)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		block.SessionID,
		block.BlockType,
		block.Content,
		formatVector(block.Embedding),
		block.Metadata,
	).Scan(&block.ID, &block.CreatedAt)
}

// GetByID retrieves a memory block by ID. The stored embedding is not loaded.
func (r *MemoryBlockRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MemoryBlock, error) {
	block := &models.MemoryBlock{}
	query := `
		SELECT id, session_id, block_type, content, metadata, created_at
		FROM memory_blocks
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&block.ID,
		&block.SessionID,
		&block.BlockType,
		&block.Content,
		&block.Metadata,
		&block.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if block.Metadata == nil {
		block.Metadata = make(models.BlockMetadata)
	}
	return block, nil
}

// ListBySession retrieves blocks for a session newest first, optionally
// filtered by block types.
func (r *MemoryBlockRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, blockTypes []models.BlockType) ([]models.MemoryBlock, error) {
	query := `
		SELECT id, session_id, block_type, content, metadata, created_at
		FROM memory_blocks
		WHERE session_id = $1`
	args := []interface{}{sessionID}
	if len(blockTypes) > 0 {
		args = append(args, blockTypeStrings(blockTypes))
		query += ` AND block_type = ANY($2)`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBlocks(rows)
}

// ListByIDs retrieves the blocks with the given IDs. Missing IDs are
// silently skipped.
func (r *MemoryBlockRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MemoryBlock, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, session_id, block_type, content, metadata, created_at
		FROM memory_blocks
		WHERE id = ANY($1)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBlocks(rows)
}

// ListByCase retrieves blocks across every session of a case, newest first,
// optionally filtered by block types and capped at limit.
func (r *MemoryBlockRepository) ListByCase(ctx context.Context, caseID uuid.UUID, blockTypes []models.BlockType, limit int) ([]models.MemoryBlock, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT mb.id, mb.session_id, mb.block_type, mb.content, mb.metadata, mb.created_at
		FROM memory_blocks mb
		JOIN case_sessions cs ON mb.session_id = cs.id
		WHERE cs.case_id = $1`
	args := []interface{}{caseID}
	if len(blockTypes) > 0 {
		args = append(args, blockTypeStrings(blockTypes))
		query += fmt.Sprintf(` AND mb.block_type = ANY($%d)`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY mb.created_at DESC LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBlocks(rows)
}

// Update rewrites a block's content, embedding, and metadata
func (r *MemoryBlockRepository) Update(ctx context.Context, block *models.MemoryBlock) error {
	if err := validateEmbedding(block.Embedding); err != nil {
		return err
	}
	query := `
		UPDATE memory_blocks SET
			content = $2,
			embedding = $3::vector,
			metadata = $4
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, block.ID, block.Content, formatVector(block.Embedding), block.Metadata)
	return err
}

// UpdateMetadata rewrites only a block's metadata
func (r *MemoryBlockRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata models.BlockMetadata) error {
	_, err := r.db.Exec(ctx, `UPDATE memory_blocks SET metadata = $2 WHERE id = $1`, id, metadata)
	return err
}

// Delete removes a memory block, reporting whether a row existed
func (r *MemoryBlockRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM memory_blocks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// BlockSearchParams describes one similarity search. Exactly one scope level
// is applied, in precedence order: session, then case, then user. With no
// scope set the search matches nothing.
type BlockSearchParams struct {
	SessionID     *uuid.UUID
	CaseID        *uuid.UUID
	UserID        *uuid.UUID
	BlockTypes    []models.BlockType
	MinSimilarity float64
	Limit         int
}

// buildBlockSearchQuery composes the scoped similarity query. It returns
// false when no scope is set, in which case no query should run.
func buildBlockSearchQuery(p BlockSearchParams, vectorStr string) (string, []interface{}, bool) {
	args := []interface{}{vectorStr}

	var from string
	var conditions []string
	switch {
	case p.SessionID != nil:
		from = "FROM memory_blocks mb"
		args = append(args, *p.SessionID)
		conditions = append(conditions, fmt.Sprintf("mb.session_id = $%d", len(args)))
	case p.CaseID != nil:
		from = "FROM memory_blocks mb\n\t\tJOIN case_sessions cs ON mb.session_id = cs.id"
		args = append(args, *p.CaseID)
		conditions = append(conditions, fmt.Sprintf("cs.case_id = $%d", len(args)))
	case p.UserID != nil:
		from = "FROM memory_blocks mb\n\t\tJOIN case_sessions cs ON mb.session_id = cs.id\n\t\tJOIN cases c ON cs.case_id = c.id"
		args = append(args, *p.UserID)
		conditions = append(conditions, fmt.Sprintf("c.user_id = $%d", len(args)))
	default:
		return "", nil, false
	}

	if len(p.BlockTypes) > 0 {
		args = append(args, blockTypeStrings(p.BlockTypes))
		conditions = append(conditions, fmt.Sprintf("mb.block_type = ANY($%d)", len(args)))
	}

	if p.MinSimilarity > 0 {
		args = append(args, p.MinSimilarity)
		conditions = append(conditions, fmt.Sprintf("(1 - (mb.embedding <=> $1::vector)) >= $%d", len(args)))
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT mb.id, mb.session_id, mb.block_type, mb.content, mb.metadata, mb.created_at,
			1 - (mb.embedding <=> $1::vector) AS similarity
		%s
		WHERE %s
		ORDER BY mb.embedding <=> $1::vector ASC
		LIMIT $%d`, from, strings.Join(conditions, "\n\t\t\tAND "), len(args))

	return query, args, true
}

// Search performs a cosine similarity search over memory blocks within the
// given scope, most similar first.
func (r *MemoryBlockRepository) Search(ctx context.Context, embedding []float64, params BlockSearchParams) ([]models.ScoredBlock, error) {
	if err := validateEmbedding(embedding); err != nil {
		return nil, err
	}
	query, args, ok := buildBlockSearchQuery(params, formatVector(embedding))
	if !ok {
		return []models.ScoredBlock{}, nil
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search memory blocks: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredBlock
	for rows.Next() {
		sb := models.ScoredBlock{Block: &models.MemoryBlock{}}
		err := rows.Scan(
			&sb.Block.ID,
			&sb.Block.SessionID,
			&sb.Block.BlockType,
			&sb.Block.Content,
			&sb.Block.Metadata,
			&sb.Block.CreatedAt,
			&sb.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if sb.Block.Metadata == nil {
			sb.Block.Metadata = make(models.BlockMetadata)
		}
		results = append(results, sb)
	}
	return results, rows.Err()
}

func blockTypeStrings(blockTypes []models.BlockType) []string {
	out := make([]string, len(blockTypes))
	for i, bt := range blockTypes {
		out[i] = string(bt)
	}
	return out
}

func scanBlocks(rows pgx.Rows) ([]models.MemoryBlock, error) {
	var blocks []models.MemoryBlock
	for rows.Next() {
		var b models.MemoryBlock
		err := rows.Scan(&b.ID, &b.SessionID, &b.BlockType, &b.Content, &b.Metadata, &b.CreatedAt)
		if err != nil {
			return nil, err
		}
		if b.Metadata == nil {
			b.Metadata = make(models.BlockMetadata)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}
