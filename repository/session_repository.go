package repository

import (
	"context"
	"time"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles database operations for case sessions
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session for a case. The session number is assigned
// atomically as one greater than the highest existing number for the case.
func (r *SessionRepository) Create(ctx context.Context, caseID uuid.UUID) (*models.Session, error) {
	s := &models.Session{CaseID: caseID, Status: models.SessionStatusActive}
	query := `
		INSERT INTO case_sessions (case_id, session_number, status)
		VALUES (
			$1,
			(SELECT COALESCE(MAX(session_number), 0) + 1 FROM case_sessions WHERE case_id = $1),
			$2
		)
		RETURNING id, session_number, created_at`

	err := r.db.QueryRow(ctx, query, caseID, s.Status).Scan(&s.ID, &s.SessionNumber, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s := &models.Session{}
	query := `
		SELECT id, case_id, session_number, status, created_at, completed_at
		FROM case_sessions
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.CaseID,
		&s.SessionNumber,
		&s.Status,
		&s.CreatedAt,
		&s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetActive retrieves the most recent active session for a case, or pgx.ErrNoRows
func (r *SessionRepository) GetActive(ctx context.Context, caseID uuid.UUID) (*models.Session, error) {
	s := &models.Session{}
	query := `
		SELECT id, case_id, session_number, status, created_at, completed_at
		FROM case_sessions
		WHERE case_id = $1 AND status = $2
		ORDER BY session_number DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, caseID, models.SessionStatusActive).Scan(
		&s.ID,
		&s.CaseID,
		&s.SessionNumber,
		&s.Status,
		&s.CreatedAt,
		&s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByCase retrieves all sessions for a case, newest first
func (r *SessionRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Session, error) {
	query := `
		SELECT id, case_id, session_number, status, created_at, completed_at
		FROM case_sessions
		WHERE case_id = $1
		ORDER BY session_number DESC`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		err := rows.Scan(&s.ID, &s.CaseID, &s.SessionNumber, &s.Status, &s.CreatedAt, &s.CompletedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// UpdateStatus updates a session's status. Completed and archived sessions
// get a completion timestamp.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error {
	var completedAt *time.Time
	if status != models.SessionStatusActive {
		now := time.Now()
		completedAt = &now
	}
	query := `
		UPDATE case_sessions SET
			status = $2,
			completed_at = COALESCE($3, completed_at)
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status, completedAt)
	return err
}

// CountBlocksByType returns the number of memory blocks per block type
// within a session.
func (r *SessionRepository) CountBlocksByType(ctx context.Context, sessionID uuid.UUID) (map[string]int, error) {
	query := `
		SELECT block_type, COUNT(*)
		FROM memory_blocks
		WHERE session_id = $1
		GROUP BY block_type`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var blockType string
		var count int
		if err := rows.Scan(&blockType, &count); err != nil {
			return nil, err
		}
		counts[blockType] = count
	}
	return counts, rows.Err()
}

// IsOwner reports whether the session's case belongs to the user
func (r *SessionRepository) IsOwner(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM case_sessions cs
			JOIN cases c ON cs.case_id = c.id
			WHERE cs.id = $1 AND c.user_id = $2
		)`, sessionID, userID).Scan(&exists)
	return exists, err
}
