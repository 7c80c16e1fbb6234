package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailer8/mailer8/internal/database"
	"github.com/mailer8/mailer8/internal/model"
)

// TemplateRepository handles email template persistence
type TemplateRepository struct {
	db *database.Postgres
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *database.Postgres) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create inserts a new email template
func (r *TemplateRepository) Create(ctx context.Context, tmpl *model.EmailTemplate) error {
	query := `
		INSERT INTO email_templates (id, name, subject, body, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		tmpl.ID,
		tmpl.Name,
		tmpl.Subject,
		tmpl.Body,
		tmpl.IsActive,
		tmpl.CreatedAt,
		tmpl.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// GetActiveByID retrieves a template by ID only if it is active
func (r *TemplateRepository) GetActiveByID(ctx context.Context, id string) (*model.EmailTemplate, error) {
	query := `
		SELECT id, name, subject, body, is_active, created_at, updated_at
		FROM email_templates
		WHERE id = $1 AND is_active = true
	`
	return r.scanTemplate(r.db.QueryRowContext(ctx, query, id))
}

// GetByName retrieves a template by its unique name
func (r *TemplateRepository) GetByName(ctx context.Context, name string) (*model.EmailTemplate, error) {
	query := `
		SELECT id, name, subject, body, is_active, created_at, updated_at
		FROM email_templates
		WHERE name = $1
	`
	return r.scanTemplate(r.db.QueryRowContext(ctx, query, name))
}

func (r *TemplateRepository) scanTemplate(row *sql.Row) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}
	return &t, nil
}
