package repository

import (
	"context"
	"time"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseRepository handles database operations for cases
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create creates a new case
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	if c.Status == "" {
		c.Status = models.CaseStatusActive
	}
	query := `
		INSERT INTO cases (user_id, title, description, dispute_type, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		c.UserID,
		c.Title,
		c.Description,
		c.DisputeType,
		c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID retrieves a case by ID
func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	c := &models.Case{}
	query := `
		SELECT id, user_id, title, description, dispute_type, status,
			generated_content, created_at, updated_at, completed_at
		FROM cases
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.Description,
		&c.DisputeType,
		&c.Status,
		&c.GeneratedContent,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByUser retrieves all cases for a user, newest first
func (r *CaseRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Case, error) {
	query := `
		SELECT id, user_id, title, description, dispute_type, status,
			generated_content, created_at, updated_at, completed_at
		FROM cases
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []models.Case
	for rows.Next() {
		var c models.Case
		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Title,
			&c.Description,
			&c.DisputeType,
			&c.Status,
			&c.GeneratedContent,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// UpdateStatus updates the status of a case. Completed cases also get a
// completion timestamp.
func (r *CaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.CaseStatus) error {
	var completedAt *time.Time
	if status == models.CaseStatusCompleted {
		now := time.Now()
		completedAt = &now
	}
	query := `
		UPDATE cases SET
			status = $2,
			completed_at = COALESCE($3, completed_at),
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status, completedAt)
	return err
}

// SetGeneratedContent stores the final drafted document on the case
func (r *CaseRepository) SetGeneratedContent(ctx context.Context, id uuid.UUID, content string) error {
	query := `
		UPDATE cases SET
			generated_content = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, content)
	return err
}

// Delete removes a case and, through cascading foreign keys, its sessions,
// memory blocks, agent runs, and documents.
func (r *CaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	return err
}

// IsOwner reports whether the case belongs to the user. Call before any
// read or write crossing a trust boundary.
func (r *CaseRepository) IsOwner(ctx context.Context, caseID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1 AND user_id = $2)`,
		caseID, userID).Scan(&exists)
	return exists, err
}
