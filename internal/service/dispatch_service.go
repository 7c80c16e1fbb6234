package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mailer8/mailer8/internal/config"
	"github.com/mailer8/mailer8/internal/email"
	"github.com/mailer8/mailer8/internal/logger"
	"github.com/mailer8/mailer8/internal/model"
)

// ErrNoDefaultTemplate aborts a dispatch run before any customer is
// processed: there is nothing to render without a default template.
var ErrNoDefaultTemplate = errors.New("no default template configured")

// CustomerStore provides the birthday candidates for a dispatch run.
type CustomerStore interface {
	FindBirthdayCustomers(ctx context.Context, month, day int) ([]model.Customer, error)
}

// EmailLogStore records send attempts and answers the idempotency check.
type EmailLogStore interface {
	Create(ctx context.Context, log *model.EmailLog) error
	HasSentLog(ctx context.Context, customerID string, from, to time.Time) (bool, error)
}

// Settings exposes the settings reads the dispatch pipeline depends on.
type Settings interface {
	DefaultTemplate(ctx context.Context) (*model.EmailTemplate, error)
	SendTime(ctx context.Context) string
	Timezone(ctx context.Context) *time.Location
	CompanyName(ctx context.Context) string
}

// SendError describes one customer's failed send within a run.
type SendError struct {
	CustomerID string `json:"customerId"`
	Email      string `json:"email"`
	Error      string `json:"error"`
}

// RunSummary aggregates the outcome of one dispatch run. It is built
// fresh per run and never persisted.
type RunSummary struct {
	Attempted int         `json:"attempted"`
	Sent      int         `json:"sent"`
	Failed    int         `json:"failed"`
	Errors    []SendError `json:"errors"`
}

// DispatchService orchestrates one birthday email run: resolve the
// default template, select candidates, then render, send and log each
// customer sequentially in selector order.
type DispatchService struct {
	customers   CustomerStore
	logs        EmailLogStore
	settings    Settings
	sender      email.Sender
	fromAddress string
	fromName    string
	sendTimeout time.Duration
	now         func() time.Time
	log         *logger.Logger
}

// NewDispatchService creates a new DispatchService
func NewDispatchService(customers CustomerStore, logs EmailLogStore, settings Settings, sender email.Sender, cfg *config.Config, log *logger.Logger) *DispatchService {
	timeout := cfg.Email.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DispatchService{
		customers:   customers,
		logs:        logs,
		settings:    settings,
		sender:      sender,
		fromAddress: cfg.Email.FromAddress,
		fromName:    cfg.Email.FromName,
		sendTimeout: timeout,
		now:         time.Now,
		log:         log.WithComponent("dispatch"),
	}
}

// Run executes one dispatch run for the given target date (zero value
// means today). Only the missing-default-template precondition fails the
// run; per-customer failures are captured in the summary and the run
// always completes.
func (s *DispatchService) Run(ctx context.Context, target time.Time) (*RunSummary, error) {
	summary := &RunSummary{Errors: []SendError{}}

	tmpl, err := s.settings.DefaultTemplate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default template: %w", err)
	}
	if tmpl == nil {
		return nil, ErrNoDefaultTemplate
	}

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	if company := s.settings.CompanyName(ctx); company != "" {
		from = fmt.Sprintf("%s <%s>", company, s.fromAddress)
	}

	if target.IsZero() {
		target = s.now()
	}

	customers, err := s.customers.FindBirthdayCustomers(ctx, int(target.Month()), target.Day())
	if err != nil {
		return nil, fmt.Errorf("failed to find birthday customers: %w", err)
	}
	if len(customers) == 0 {
		s.log.Info().Time("target", target).Msg("no birthdays found for target date")
		return summary, nil
	}

	summary.Attempted = len(customers)
	s.log.Info().
		Int("customers", len(customers)).
		Time("target", target).
		Str("template_id", tmpl.ID).
		Msg("starting birthday email run")

	for i := range customers {
		s.processCustomer(ctx, &customers[i], tmpl, from, summary)
	}

	s.log.Info().
		Int("attempted", summary.Attempted).
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Msg("birthday email run completed")
	return summary, nil
}

// processCustomer handles one customer's idempotency check, render,
// send and audit log write.
func (s *DispatchService) processCustomer(ctx context.Context, c *model.Customer, tmpl *model.EmailTemplate, from string, summary *RunSummary) {
	// Dedup window is today's wall-clock date, not the run's target
	// date, so re-triggering the same day never double-sends. The check
	// runs immediately before each send to narrow the race window when
	// two triggers overlap.
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24*time.Hour - time.Nanosecond)

	clog := s.log.WithCustomerID(c.ID)

	alreadySent, err := s.logs.HasSentLog(ctx, c.ID, startOfDay, endOfDay)
	if err != nil {
		s.recordFailure(ctx, c, tmpl, summary, "Failed idempotency check", fmt.Sprintf("idempotency check failed: %v", err))
		return
	}
	if alreadySent {
		clog.Info().Str("email", c.Email).Msg("email already sent today, skipping")
		return
	}

	emailCtx := email.NewContext(c)
	subject := email.Render(tmpl.Subject, emailCtx)
	body := email.Render(tmpl.Body, emailCtx)

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	sendErr := s.sender.Send(sendCtx, email.Message{
		To:       model.NormalizeEmail(c.Email),
		From:     from,
		Subject:  subject,
		HTMLBody: body,
	})
	cancel()

	entry := &model.EmailLog{
		ID:         uuid.New().String(),
		CustomerID: c.ID,
		TemplateID: tmpl.ID,
		ToEmail:    model.NormalizeEmail(c.Email),
		Subject:    subject,
		Body:       body,
		SentAt:     s.now(),
	}

	if sendErr != nil {
		msg := sendErr.Error()
		entry.Status = model.EmailStatusFailed
		entry.ErrorMessage = &msg
		summary.Failed++
		summary.Errors = append(summary.Errors, SendError{CustomerID: c.ID, Email: c.Email, Error: msg})
		clog.Error().Err(sendErr).Str("email", c.Email).Msg("failed to send birthday email")
	} else {
		entry.Status = model.EmailStatusSent
		summary.Sent++
		clog.Info().Str("name", c.FullName()).Str("email", c.Email).Str("template_id", tmpl.ID).Msg("birthday email sent")
	}

	if logErr := s.logs.Create(ctx, entry); logErr != nil {
		// Audit write failures stay operational: the run result is
		// already decided at this point.
		clog.Error().Err(logErr).Msg("failed to create email log")
	}
}

// recordFailure accounts a customer that failed before a send could be
// attempted, still leaving a FAILED audit row naming the failure stage.
func (s *DispatchService) recordFailure(ctx context.Context, c *model.Customer, tmpl *model.EmailTemplate, summary *RunSummary, stage, reason string) {
	summary.Failed++
	summary.Errors = append(summary.Errors, SendError{CustomerID: c.ID, Email: c.Email, Error: reason})
	s.log.WithCustomerID(c.ID).Error().Str("email", c.Email).Str("reason", reason).Msg("birthday email attempt failed")

	entry := &model.EmailLog{
		ID:           uuid.New().String(),
		CustomerID:   c.ID,
		TemplateID:   tmpl.ID,
		ToEmail:      model.NormalizeEmail(c.Email),
		Subject:      stage,
		Body:         stage,
		Status:       model.EmailStatusFailed,
		ErrorMessage: &reason,
		SentAt:       s.now(),
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.log.WithCustomerID(c.ID).Error().Err(err).Msg("failed to create email log")
	}
}
