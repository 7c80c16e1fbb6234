package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mailer8/mailer8/internal/database"
	"github.com/mailer8/mailer8/internal/model"
)

// EmailLogRepository handles the append-only email audit log
type EmailLogRepository struct {
	db *database.Postgres
}

// NewEmailLogRepository creates a new EmailLogRepository
func NewEmailLogRepository(db *database.Postgres) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

// Create inserts a new email log entry. Entries are never updated or
// deleted afterwards.
func (r *EmailLogRepository) Create(ctx context.Context, log *model.EmailLog) error {
	query := `
		INSERT INTO email_logs (id, customer_id, template_id, to_email, subject, body, status, error_message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.CustomerID,
		log.TemplateID,
		log.ToEmail,
		log.Subject,
		log.Body,
		log.Status,
		log.ErrorMessage,
		log.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create email log: %w", err)
	}
	return nil
}

// HasSentLog reports whether a SENT log exists for the customer with a
// timestamp inside [from, to]. Used as the per-customer idempotency
// check before each send.
func (r *EmailLogRepository) HasSentLog(ctx context.Context, customerID string, from, to time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM email_logs
			WHERE customer_id = $1 AND status = $2 AND sent_at BETWEEN $3 AND $4
		)
	`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, customerID, model.EmailStatusSent, from, to).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sent log: %w", err)
	}
	return exists, nil
}

// List returns email logs ordered by most recent first, optionally
// filtered by customer
func (r *EmailLogRepository) List(ctx context.Context, customerID string, limit int) ([]model.EmailLog, error) {
	query := `
		SELECT id, customer_id, template_id, to_email, subject, status, error_message, sent_at
		FROM email_logs
		WHERE ($1 = '' OR customer_id = $1)
		ORDER BY sent_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query email logs: %w", err)
	}
	defer rows.Close()

	var logs []model.EmailLog
	for rows.Next() {
		var l model.EmailLog
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.TemplateID, &l.ToEmail, &l.Subject, &l.Status, &l.ErrorMessage, &l.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan email log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate email logs: %w", err)
	}
	return logs, nil
}

// Stats aggregates send outcomes since the given time
func (r *EmailLogRepository) Stats(ctx context.Context, since time.Time) (*model.EmailLogStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2)
		FROM email_logs
		WHERE sent_at >= $3
	`
	var stats model.EmailLogStats
	err := r.db.QueryRowContext(ctx, query, model.EmailStatusSent, model.EmailStatusFailed, since).
		Scan(&stats.TotalEmails, &stats.SentEmails, &stats.FailedEmails)
	if err != nil {
		return nil, fmt.Errorf("failed to query email log stats: %w", err)
	}
	if stats.TotalEmails > 0 {
		rate := float64(stats.SentEmails) / float64(stats.TotalEmails) * 100
		stats.SuccessRate = float64(int(rate*100+0.5)) / 100
	}
	return &stats, nil
}
