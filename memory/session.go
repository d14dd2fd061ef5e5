package memory

import (
	"context"
	"errors"
	"fmt"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DefaultKeepRecentSessions is how many sessions survive a cleanup pass
const DefaultKeepRecentSessions = 5

// SessionRepository is the persistence surface for case sessions
type SessionRepository interface {
	Create(ctx context.Context, caseID uuid.UUID) (*models.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	GetActive(ctx context.Context, caseID uuid.UUID) (*models.Session, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error
	CountBlocksByType(ctx context.Context, sessionID uuid.UUID) (map[string]int, error)
}

// SessionManager handles session lifecycle for a case
type SessionManager struct {
	sessions SessionRepository
	logger   *zap.Logger
}

// NewSessionManager creates a session manager
func NewSessionManager(sessions SessionRepository, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{sessions: sessions, logger: logger}
}

// GetOrCreate returns the case's active session, creating the next-numbered
// one when none is active.
func (m *SessionManager) GetOrCreate(ctx context.Context, caseID uuid.UUID) (*models.Session, error) {
	session, err := m.sessions.GetActive(ctx, caseID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}

	session, err = m.sessions.Create(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	m.logger.Info("created session",
		zap.String("case_id", caseID.String()),
		zap.Int("session_number", session.SessionNumber))
	return session, nil
}

// Get retrieves a session by ID
func (m *SessionManager) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return m.sessions.GetByID(ctx, id)
}

// List retrieves all sessions for a case, newest first
func (m *SessionManager) List(ctx context.Context, caseID uuid.UUID) ([]models.Session, error) {
	return m.sessions.ListByCase(ctx, caseID)
}

// SetStatus updates a session's status
func (m *SessionManager) SetStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error {
	return m.sessions.UpdateStatus(ctx, id, status)
}

// Summary returns a session with per-type memory block counts
func (m *SessionManager) Summary(ctx context.Context, id uuid.UUID) (*models.SessionSummary, error) {
	session, err := m.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := m.sessions.CountBlocksByType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count session blocks: %w", err)
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	return &models.SessionSummary{
		Session:     session,
		BlockCounts: counts,
		TotalBlocks: total,
	}, nil
}

// CleanupOld archives sessions beyond the retention limit, keeping the
// keepRecent highest-numbered ones. Blocks in archived sessions remain
// searchable at case and user scope.
func (m *SessionManager) CleanupOld(ctx context.Context, caseID uuid.UUID, keepRecent int) (int, error) {
	if keepRecent <= 0 {
		keepRecent = DefaultKeepRecentSessions
	}
	sessions, err := m.sessions.ListByCase(ctx, caseID)
	if err != nil {
		return 0, err
	}
	if len(sessions) <= keepRecent {
		return 0, nil
	}

	archived := 0
	for _, s := range sessions[keepRecent:] {
		if s.Status == models.SessionStatusArchived {
			continue
		}
		if err := m.sessions.UpdateStatus(ctx, s.ID, models.SessionStatusArchived); err != nil {
			return archived, fmt.Errorf("failed to archive session %s: %w", s.ID, err)
		}
		archived++
	}
	return archived, nil
}
