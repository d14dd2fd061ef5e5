// Package memory implements the typed, vector-searchable case knowledge
// store: memory block CRUD with embedding generation, scoped similarity
// search, session lifecycle, and context formatting for agents.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"caseassist-backend/models"
	"caseassist-backend/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	ErrEmptyContent     = errors.New("memory block content cannot be empty")
	ErrInvalidBlockType = errors.New("invalid memory block type")
	ErrBlockNotFound    = errors.New("memory block not found")
)

// Embedder generates embeddings for block content and search queries
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// BlockRepository is the persistence surface for memory blocks
type BlockRepository interface {
	Create(ctx context.Context, block *models.MemoryBlock) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MemoryBlock, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID, blockTypes []models.BlockType) ([]models.MemoryBlock, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MemoryBlock, error)
	ListByCase(ctx context.Context, caseID uuid.UUID, blockTypes []models.BlockType, limit int) ([]models.MemoryBlock, error)
	Update(ctx context.Context, block *models.MemoryBlock) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata models.BlockMetadata) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Search(ctx context.Context, embedding []float64, params repository.BlockSearchParams) ([]models.ScoredBlock, error)
}

// Store manages memory blocks. Every block is embedded before it is
// persisted, so persisted blocks are always searchable.
type Store struct {
	blocks   BlockRepository
	embedder Embedder
	logger   *zap.Logger
}

// NewStore creates a memory store
func NewStore(blocks BlockRepository, embedder Embedder, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{blocks: blocks, embedder: embedder, logger: logger}
}

// CreateBlock validates, embeds, and persists a new memory block. Metadata
// is coerced to the block type's schema; unknown fields are dropped and
// invalid enum values fall back to their defaults.
func (s *Store) CreateBlock(ctx context.Context, sessionID uuid.UUID, blockType models.BlockType, content string, metadata models.BlockMetadata) (*models.MemoryBlock, error) {
	if !models.IsValidBlockType(string(blockType)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBlockType, blockType)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed block content: %w", err)
	}

	block := &models.MemoryBlock{
		SessionID: sessionID,
		BlockType: blockType,
		Content:   content,
		Embedding: embedding,
		Metadata:  models.ValidateBlockMetadata(blockType, metadata),
	}
	if err := s.blocks.Create(ctx, block); err != nil {
		return nil, fmt.Errorf("failed to create memory block: %w", err)
	}
	s.logger.Debug("created memory block",
		zap.String("block_id", block.ID.String()),
		zap.String("block_type", string(blockType)))
	return block, nil
}

// GetBlock retrieves a single memory block. A missing block is
// ErrBlockNotFound, never a raw driver error.
func (s *Store) GetBlock(ctx context.Context, id uuid.UUID) (*models.MemoryBlock, error) {
	block, err := s.blocks.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBlockNotFound
	}
	return block, err
}

// SessionBlocks retrieves a session's blocks newest first, optionally
// filtered by type.
func (s *Store) SessionBlocks(ctx context.Context, sessionID uuid.UUID, blockTypes []models.BlockType) ([]models.MemoryBlock, error) {
	return s.blocks.ListBySession(ctx, sessionID, blockTypes)
}

// CaseContext retrieves blocks across all sessions of a case, newest first,
// capped at limit. This is how agents pull a case's full knowledge.
func (s *Store) CaseContext(ctx context.Context, caseID uuid.UUID, blockTypes []models.BlockType, limit int) ([]models.MemoryBlock, error) {
	return s.blocks.ListByCase(ctx, caseID, blockTypes, limit)
}

// UpdateBlock replaces a block's content and regenerates its embedding.
// A nil metadata leaves the stored metadata unchanged; a non-nil metadata
// replaces it after coercion.
func (s *Store) UpdateBlock(ctx context.Context, id uuid.UUID, content string, metadata models.BlockMetadata) (*models.MemoryBlock, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	block, err := s.GetBlock(ctx, id)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed block content: %w", err)
	}

	block.Content = content
	block.Embedding = embedding
	if metadata != nil {
		block.Metadata = models.ValidateBlockMetadata(block.BlockType, metadata)
	}
	if err := s.blocks.Update(ctx, block); err != nil {
		return nil, fmt.Errorf("failed to update memory block: %w", err)
	}
	return block, nil
}

// DeleteBlock hard-deletes a memory block, reporting whether it existed
func (s *Store) DeleteBlock(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.blocks.Delete(ctx, id)
}

// LinkBlocks stores related block IDs in a block's metadata as a weak
// reference set.
func (s *Store) LinkBlocks(ctx context.Context, id uuid.UUID, relatedIDs []uuid.UUID) (*models.MemoryBlock, error) {
	block, err := s.GetBlock(ctx, id)
	if err != nil {
		return nil, err
	}

	related := make([]interface{}, len(relatedIDs))
	for i, rid := range relatedIDs {
		related[i] = rid.String()
	}
	if block.Metadata == nil {
		block.Metadata = make(models.BlockMetadata)
	}
	block.Metadata["related_blocks"] = related

	if err := s.blocks.UpdateMetadata(ctx, id, block.Metadata); err != nil {
		return nil, fmt.Errorf("failed to link blocks: %w", err)
	}
	return block, nil
}

// RelatedBlocks resolves the blocks referenced from a block's metadata.
// Dangling references are skipped.
func (s *Store) RelatedBlocks(ctx context.Context, id uuid.UUID) ([]models.MemoryBlock, error) {
	block, err := s.GetBlock(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := block.RelatedBlockIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	return s.blocks.ListByIDs(ctx, ids)
}
