package repository

import (
	"context"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository handles database operations for advisor chat messages
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a conversation message
func (r *ConversationRepository) Create(ctx context.Context, msg *models.ConversationMessage) error {
	query := `
		INSERT INTO conversation_messages (case_id, role, content, context_used)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		msg.CaseID,
		msg.Role,
		msg.Content,
		msg.ContextUsed,
	).Scan(&msg.ID, &msg.CreatedAt)
}

// ListByCase retrieves messages for a case newest first, paginated
func (r *ConversationRepository) ListByCase(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]models.ConversationMessage, error) {
	query := `
		SELECT id, case_id, role, content, context_used, created_at
		FROM conversation_messages
		WHERE case_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, caseID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// Recent retrieves the newest limit messages for a case in chat order,
// oldest first.
func (r *ConversationRepository) Recent(ctx context.Context, caseID uuid.UUID, limit int) ([]models.ConversationMessage, error) {
	query := `
		SELECT id, case_id, role, content, context_used, created_at
		FROM (
			SELECT id, case_id, role, content, context_used, created_at
			FROM conversation_messages
			WHERE case_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, caseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// DeleteByCase removes all messages for a case, returning how many were
// deleted.
func (r *ConversationRepository) DeleteByCase(ctx context.Context, caseID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM conversation_messages WHERE case_id = $1`, caseID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanMessages(rows pgx.Rows) ([]models.ConversationMessage, error) {
	messages := []models.ConversationMessage{}
	for rows.Next() {
		var msg models.ConversationMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.CaseID,
			&msg.Role,
			&msg.Content,
			&msg.ContextUsed,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
