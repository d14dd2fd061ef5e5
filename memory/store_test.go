package memory

import (
	"context"
	"errors"
	"testing"

	"caseassist-backend/models"
	"caseassist-backend/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	calls  []string
	failOn string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.calls = append(f.calls, text)
	if f.failOn != "" && text == f.failOn {
		return nil, errors.New("embedding provider unavailable")
	}
	return make([]float64, 1536), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = make([]float64, 1536)
	}
	return out, nil
}

type fakeBlockRepo struct {
	byID map[uuid.UUID]*models.MemoryBlock

	searchParams  *repository.BlockSearchParams
	searchResults []models.ScoredBlock

	updated  []*models.MemoryBlock
	deleted  []uuid.UUID
	metadata map[uuid.UUID]models.BlockMetadata
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{
		byID:     make(map[uuid.UUID]*models.MemoryBlock),
		metadata: make(map[uuid.UUID]models.BlockMetadata),
	}
}

func (f *fakeBlockRepo) Create(ctx context.Context, block *models.MemoryBlock) error {
	block.ID = uuid.New()
	f.byID[block.ID] = block
	return nil
}

func (f *fakeBlockRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MemoryBlock, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return b, nil
}

func (f *fakeBlockRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, blockTypes []models.BlockType) ([]models.MemoryBlock, error) {
	var out []models.MemoryBlock
	for _, b := range f.byID {
		if b.SessionID == sessionID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBlockRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MemoryBlock, error) {
	var out []models.MemoryBlock
	for _, id := range ids {
		if b, ok := f.byID[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBlockRepo) ListByCase(ctx context.Context, caseID uuid.UUID, blockTypes []models.BlockType, limit int) ([]models.MemoryBlock, error) {
	return nil, nil
}

func (f *fakeBlockRepo) Update(ctx context.Context, block *models.MemoryBlock) error {
	f.updated = append(f.updated, block)
	f.byID[block.ID] = block
	return nil
}

func (f *fakeBlockRepo) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata models.BlockMetadata) error {
	f.metadata[id] = metadata
	return nil
}

func (f *fakeBlockRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return true, nil
}

func (f *fakeBlockRepo) Search(ctx context.Context, embedding []float64, params repository.BlockSearchParams) ([]models.ScoredBlock, error) {
	f.searchParams = &params
	return f.searchResults, nil
}

func TestCreateBlockRejectsEmptyContent(t *testing.T) {
	store := NewStore(newFakeBlockRepo(), &fakeEmbedder{}, nil)

	_, err := store.CreateBlock(context.Background(), uuid.New(), models.BlockTypeFact, "   \n ", nil)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCreateBlockRejectsUnknownType(t *testing.T) {
	store := NewStore(newFakeBlockRepo(), &fakeEmbedder{}, nil)

	_, err := store.CreateBlock(context.Background(), uuid.New(), "opinion", "some content", nil)
	assert.ErrorIs(t, err, ErrInvalidBlockType)
}

func TestCreateBlockTrimsAndEmbeds(t *testing.T) {
	repo := newFakeBlockRepo()
	embedder := &fakeEmbedder{}
	store := NewStore(repo, embedder, nil)

	block, err := store.CreateBlock(context.Background(), uuid.New(), models.BlockTypeFact,
		"  The lease began on June 1.  ", models.BlockMetadata{"fact_type": "timeline"})
	require.NoError(t, err)

	assert.Equal(t, "The lease began on June 1.", block.Content)
	assert.Len(t, block.Embedding, 1536)
	assert.Equal(t, []string{"The lease began on June 1."}, embedder.calls)
	assert.Equal(t, "timeline", block.Metadata["fact_type"])
}

func TestCreateBlockCoercesMetadata(t *testing.T) {
	store := NewStore(newFakeBlockRepo(), &fakeEmbedder{}, nil)

	block, err := store.CreateBlock(context.Background(), uuid.New(), models.BlockTypeFact,
		"content", models.BlockMetadata{"fact_type": "rumor", "unknown_key": "x"})
	require.NoError(t, err)

	assert.Equal(t, "claim", block.Metadata["fact_type"], "invalid fact_type falls back to claim")
	assert.NotContains(t, block.Metadata, "unknown_key")
}

func TestCreateBlockEmbeddingFailureDoesNotPersist(t *testing.T) {
	repo := newFakeBlockRepo()
	store := NewStore(repo, &fakeEmbedder{failOn: "bad"}, nil)

	_, err := store.CreateBlock(context.Background(), uuid.New(), models.BlockTypeFact, "bad", nil)
	require.Error(t, err)
	assert.Empty(t, repo.byID, "no block persisted when embedding fails")
}

func TestUpdateBlockRegeneratesEmbedding(t *testing.T) {
	repo := newFakeBlockRepo()
	embedder := &fakeEmbedder{}
	store := NewStore(repo, embedder, nil)

	block, err := store.CreateBlock(context.Background(), uuid.New(), models.BlockTypeEvidence, "original", nil)
	require.NoError(t, err)

	updated, err := store.UpdateBlock(context.Background(), block.ID, "  revised  ", nil)
	require.NoError(t, err)

	assert.Equal(t, "revised", updated.Content)
	assert.Equal(t, []string{"original", "revised"}, embedder.calls)
	require.Len(t, repo.updated, 1)
}

func TestUpdateBlockNilMetadataKeepsExisting(t *testing.T) {
	repo := newFakeBlockRepo()
	store := NewStore(repo, &fakeEmbedder{}, nil)

	block, err := store.CreateBlock(context.Background(), uuid.New(), models.BlockTypeEvidence,
		"original", models.BlockMetadata{"evidence_type": "witness"})
	require.NoError(t, err)

	updated, err := store.UpdateBlock(context.Background(), block.ID, "revised", nil)
	require.NoError(t, err)
	assert.Equal(t, "witness", updated.Metadata["evidence_type"])
}

func TestGetBlockMissingIsBlockNotFound(t *testing.T) {
	store := NewStore(newFakeBlockRepo(), &fakeEmbedder{}, nil)

	_, err := store.GetBlock(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

func TestUpdateBlockMissingIsBlockNotFound(t *testing.T) {
	store := NewStore(newFakeBlockRepo(), &fakeEmbedder{}, nil)

	_, err := store.UpdateBlock(context.Background(), uuid.New(), "revised", nil)
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

func TestLinkBlocksMissingIsBlockNotFound(t *testing.T) {
	store := NewStore(newFakeBlockRepo(), &fakeEmbedder{}, nil)

	_, err := store.LinkBlocks(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

func TestDeleteBlockReportsExistence(t *testing.T) {
	repo := newFakeBlockRepo()
	store := NewStore(repo, &fakeEmbedder{}, nil)

	block, err := store.CreateBlock(context.Background(), uuid.New(), models.BlockTypeFact, "content", nil)
	require.NoError(t, err)

	deleted, err := store.DeleteBlock(context.Background(), block.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteBlock(context.Background(), block.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete finds no row")
}

func TestLinkAndRelatedBlocks(t *testing.T) {
	repo := newFakeBlockRepo()
	store := NewStore(repo, &fakeEmbedder{}, nil)
	ctx := context.Background()
	sessionID := uuid.New()

	fact, err := store.CreateBlock(ctx, sessionID, models.BlockTypeFact, "the lease required 30 days notice", nil)
	require.NoError(t, err)
	evidence, err := store.CreateBlock(ctx, sessionID, models.BlockTypeEvidence, "signed lease, page 3", nil)
	require.NoError(t, err)

	_, err = store.LinkBlocks(ctx, evidence.ID, []uuid.UUID{fact.ID, uuid.New()})
	require.NoError(t, err)

	related, err := store.RelatedBlocks(ctx, evidence.ID)
	require.NoError(t, err)
	require.Len(t, related, 1, "dangling reference skipped")
	assert.Equal(t, fact.ID, related[0].ID)
}

func TestRelatedBlocksEmptyMetadata(t *testing.T) {
	repo := newFakeBlockRepo()
	store := NewStore(repo, &fakeEmbedder{}, nil)

	block, err := store.CreateBlock(context.Background(), uuid.New(), models.BlockTypeFact, "standalone", nil)
	require.NoError(t, err)

	related, err := store.RelatedBlocks(context.Background(), block.ID)
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestSearchEmptyScopeSkipsProvider(t *testing.T) {
	repo := newFakeBlockRepo()
	embedder := &fakeEmbedder{}
	store := NewStore(repo, embedder, nil)

	results, err := store.Search(context.Background(), "anything", SearchScope{}, SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, embedder.calls, "no embedding call for unscoped search")
	assert.Nil(t, repo.searchParams)
}

func TestSearchPassesScopeAndOptions(t *testing.T) {
	repo := newFakeBlockRepo()
	repo.searchResults = []models.ScoredBlock{
		{Block: &models.MemoryBlock{Content: "hit"}, Similarity: 0.92},
	}
	store := NewStore(repo, &fakeEmbedder{}, nil)

	caseID := uuid.New()
	results, err := store.Search(context.Background(), "notice period",
		SearchScope{CaseID: &caseID},
		SearchOptions{BlockTypes: []models.BlockType{models.BlockTypeFact}, Limit: 7, MinSimilarity: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.92, results[0].Similarity)

	require.NotNil(t, repo.searchParams)
	assert.Equal(t, &caseID, repo.searchParams.CaseID)
	assert.Nil(t, repo.searchParams.SessionID)
	assert.Equal(t, 7, repo.searchParams.Limit)
	assert.Equal(t, 0.5, repo.searchParams.MinSimilarity)
}
