package repository

import (
	"context"

	"caseassist-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository handles database operations for uploaded documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new document record
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (case_id, filename, mime_type, size, storage_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, processed, created_at`

	return r.db.QueryRow(
		ctx, query,
		doc.CaseID,
		doc.Filename,
		doc.MimeType,
		doc.Size,
		doc.StoragePath,
	).Scan(&doc.ID, &doc.Processed, &doc.CreatedAt)
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc := &models.Document{}
	query := `
		SELECT id, case_id, filename, mime_type, size, storage_path,
			extracted_text, summary, processed, created_at
		FROM documents
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.CaseID,
		&doc.Filename,
		&doc.MimeType,
		&doc.Size,
		&doc.StoragePath,
		&doc.ExtractedText,
		&doc.Summary,
		&doc.Processed,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListByCase retrieves all documents for a case, newest first
func (r *DocumentRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error) {
	query := `
		SELECT id, case_id, filename, mime_type, size, storage_path,
			extracted_text, summary, processed, created_at
		FROM documents
		WHERE case_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.CaseID,
			&doc.Filename,
			&doc.MimeType,
			&doc.Size,
			&doc.StoragePath,
			&doc.ExtractedText,
			&doc.Summary,
			&doc.Processed,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListUnprocessed retrieves documents not yet analyzed by the document
// agent, oldest first, capped at limit.
func (r *DocumentRepository) ListUnprocessed(ctx context.Context, caseID uuid.UUID, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT id, case_id, filename, mime_type, size, storage_path,
			extracted_text, summary, processed, created_at
		FROM documents
		WHERE case_id = $1 AND processed = FALSE
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, caseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.CaseID,
			&doc.Filename,
			&doc.MimeType,
			&doc.Size,
			&doc.StoragePath,
			&doc.ExtractedText,
			&doc.Summary,
			&doc.Processed,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// MarkProcessed flags a document as analyzed
func (r *DocumentRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE documents SET processed = TRUE WHERE id = $1`, id)
	return err
}

// SetExtractedText stores text extracted from a document
func (r *DocumentRepository) SetExtractedText(ctx context.Context, id uuid.UUID, text string) error {
	_, err := r.db.Exec(ctx, `UPDATE documents SET extracted_text = $2 WHERE id = $1`, id, text)
	return err
}

// SetSummary stores a generated summary for a document
func (r *DocumentRepository) SetSummary(ctx context.Context, id uuid.UUID, summary string) error {
	_, err := r.db.Exec(ctx, `UPDATE documents SET summary = $2 WHERE id = $1`, id, summary)
	return err
}

// Delete removes a document record
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}
