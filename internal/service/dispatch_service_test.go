package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailer8/mailer8/internal/config"
	"github.com/mailer8/mailer8/internal/email"
	"github.com/mailer8/mailer8/internal/logger"
	"github.com/mailer8/mailer8/internal/model"
)

type stubCustomerStore struct {
	customers []model.Customer
	err       error
}

func (s *stubCustomerStore) FindBirthdayCustomers(_ context.Context, _, _ int) ([]model.Customer, error) {
	return s.customers, s.err
}

type stubLogStore struct {
	entries   []model.EmailLog
	createErr error
	hasErr    error
}

func (s *stubLogStore) Create(_ context.Context, log *model.EmailLog) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.entries = append(s.entries, *log)
	return nil
}

func (s *stubLogStore) HasSentLog(_ context.Context, customerID string, from, to time.Time) (bool, error) {
	if s.hasErr != nil {
		return false, s.hasErr
	}
	for _, e := range s.entries {
		if e.CustomerID == customerID && e.Status == model.EmailStatusSent &&
			!e.SentAt.Before(from) && !e.SentAt.After(to) {
			return true, nil
		}
	}
	return false, nil
}

type stubSettings struct {
	tmpl     *model.EmailTemplate
	tmplErr  error
	sendTime string
	zone     *time.Location
	company  string
}

func (s *stubSettings) DefaultTemplate(_ context.Context) (*model.EmailTemplate, error) {
	return s.tmpl, s.tmplErr
}

func (s *stubSettings) SendTime(_ context.Context) string {
	if s.sendTime == "" {
		return "07:00"
	}
	return s.sendTime
}

func (s *stubSettings) Timezone(_ context.Context) *time.Location {
	if s.zone == nil {
		return time.UTC
	}
	return s.zone
}

func (s *stubSettings) CompanyName(_ context.Context) string { return s.company }

type stubSender struct {
	sent    []email.Message
	failFor map[string]error
}

func (s *stubSender) Send(_ context.Context, msg email.Message) error {
	if err, ok := s.failFor[msg.To]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func testTemplate() *model.EmailTemplate {
	return &model.EmailTemplate{
		ID:       "tmpl-1",
		Name:     "Classic Birthday",
		Subject:  "Happy Birthday {{firstName}}!",
		Body:     "<p>Dear {{firstName}} {{lastName}}, born {{dob}}.</p>",
		IsActive: true,
	}
}

func testCustomer(id, first, last, addr string) model.Customer {
	return model.Customer{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Email:     addr,
		DOB:       time.Date(1990, time.March, 5, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
}

func newTestDispatch(customers CustomerStore, logs EmailLogStore, settings Settings, sender email.Sender) *DispatchService {
	cfg := &config.Config{}
	cfg.Email.FromAddress = "no-reply@mailer8.test"
	cfg.Email.FromName = "Mailer8"
	cfg.Email.SendTimeout = time.Second
	svc := NewDispatchService(customers, logs, settings, sender, cfg, logger.New("error", "json"))
	svc.now = func() time.Time { return time.Date(2026, time.March, 5, 7, 0, 0, 0, time.UTC) }
	return svc
}

func TestDispatchRunHappyPath(t *testing.T) {
	t.Parallel()

	customers := &stubCustomerStore{customers: []model.Customer{
		testCustomer("c1", "Ada", "Okafor", "Ada@example.com"),
		testCustomer("c2", "Ben", "Adeyemi", "ben@example.com"),
	}}
	logs := &stubLogStore{}
	sender := &stubSender{}
	svc := newTestDispatch(customers, logs, &stubSettings{tmpl: testTemplate()}, sender)

	summary, err := svc.Run(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, summary.Errors)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "ada@example.com", sender.sent[0].To)
	assert.Equal(t, "Happy Birthday Ada!", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].HTMLBody, "Ada Okafor")
	assert.Contains(t, sender.sent[0].HTMLBody, "05 Mar")

	require.Len(t, logs.entries, 2)
	for _, e := range logs.entries {
		assert.Equal(t, model.EmailStatusSent, e.Status)
		assert.Nil(t, e.ErrorMessage)
		assert.Equal(t, "tmpl-1", e.TemplateID)
	}
}

func TestDispatchRunNoDefaultTemplate(t *testing.T) {
	t.Parallel()

	customers := &stubCustomerStore{customers: []model.Customer{testCustomer("c1", "Ada", "Okafor", "ada@example.com")}}
	logs := &stubLogStore{}
	sender := &stubSender{}
	svc := newTestDispatch(customers, logs, &stubSettings{tmpl: nil}, sender)

	summary, err := svc.Run(context.Background(), time.Time{})
	require.ErrorIs(t, err, ErrNoDefaultTemplate)
	assert.Nil(t, summary)

	// The precondition aborts before any customer work happens.
	assert.Empty(t, sender.sent)
	assert.Empty(t, logs.entries)
}

func TestDispatchRunEmptySelection(t *testing.T) {
	t.Parallel()

	logs := &stubLogStore{}
	sender := &stubSender{}
	svc := newTestDispatch(&stubCustomerStore{}, logs, &stubSettings{tmpl: testTemplate()}, sender)

	summary, err := svc.Run(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, &RunSummary{Errors: []SendError{}}, summary)
	assert.Empty(t, sender.sent)
	assert.Empty(t, logs.entries)
}

func TestDispatchRunPartialFailure(t *testing.T) {
	t.Parallel()

	customers := &stubCustomerStore{customers: []model.Customer{
		testCustomer("c1", "Ada", "Okafor", "ada@example.com"),
		testCustomer("c2", "Ben", "Adeyemi", "ben@example.com"),
		testCustomer("c3", "Chi", "Eze", "chi@example.com"),
	}}
	logs := &stubLogStore{}
	sender := &stubSender{failFor: map[string]error{"ben@example.com": errors.New("mailbox unavailable")}}
	svc := newTestDispatch(customers, logs, &stubSettings{tmpl: testTemplate()}, sender)

	summary, err := svc.Run(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "c2", summary.Errors[0].CustomerID)
	assert.Equal(t, "ben@example.com", summary.Errors[0].Email)
	assert.Equal(t, "mailbox unavailable", summary.Errors[0].Error)

	// Every attempt leaves an audit row, failed ones included.
	require.Len(t, logs.entries, 3)
	var failed *model.EmailLog
	for i := range logs.entries {
		if logs.entries[i].Status == model.EmailStatusFailed {
			failed = &logs.entries[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "c2", failed.CustomerID)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "mailbox unavailable", *failed.ErrorMessage)
}

func TestDispatchRunIdempotency(t *testing.T) {
	t.Parallel()

	customers := &stubCustomerStore{customers: []model.Customer{
		testCustomer("c1", "Ada", "Okafor", "ada@example.com"),
	}}
	logs := &stubLogStore{}
	sender := &stubSender{}
	svc := newTestDispatch(customers, logs, &stubSettings{tmpl: testTemplate()}, sender)

	first, err := svc.Run(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sent)

	second, err := svc.Run(context.Background(), time.Time{})
	require.NoError(t, err)

	// Second run the same day skips everyone already sent to.
	assert.Equal(t, 1, second.Attempted)
	assert.Equal(t, 0, second.Sent)
	assert.Equal(t, 0, second.Failed)
	assert.Len(t, sender.sent, 1)
	assert.Len(t, logs.entries, 1)
}

func TestDispatchRunFailedAttemptDoesNotBlockRetry(t *testing.T) {
	t.Parallel()

	customers := &stubCustomerStore{customers: []model.Customer{
		testCustomer("c1", "Ada", "Okafor", "ada@example.com"),
	}}
	logs := &stubLogStore{}
	sender := &stubSender{failFor: map[string]error{"ada@example.com": errors.New("timeout")}}
	svc := newTestDispatch(customers, logs, &stubSettings{tmpl: testTemplate()}, sender)

	first, err := svc.Run(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Failed)

	// Only SENT rows dedup; a FAILED attempt is retried next trigger.
	delete(sender.failFor, "ada@example.com")
	second, err := svc.Run(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Sent)
	assert.Len(t, logs.entries, 2)
}

func TestDispatchRunIdempotencyCheckFailure(t *testing.T) {
	t.Parallel()

	customers := &stubCustomerStore{customers: []model.Customer{
		testCustomer("c1", "Ada", "Okafor", "ada@example.com"),
	}}
	logs := &stubLogStore{hasErr: errors.New("connection reset")}
	sender := &stubSender{}
	svc := newTestDispatch(customers, logs, &stubSettings{tmpl: testTemplate()}, sender)

	summary, err := svc.Run(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, sender.sent)

	// The audit row names the stage that failed, not a render failure.
	require.Len(t, logs.entries, 1)
	assert.Equal(t, model.EmailStatusFailed, logs.entries[0].Status)
	assert.Equal(t, "Failed idempotency check", logs.entries[0].Subject)
	require.NotNil(t, logs.entries[0].ErrorMessage)
	assert.Contains(t, *logs.entries[0].ErrorMessage, "connection reset")
}

func TestDispatchSenderIdentity(t *testing.T) {
	t.Parallel()

	t.Run("company name when configured", func(t *testing.T) {
		t.Parallel()

		sender := &stubSender{}
		customers := &stubCustomerStore{customers: []model.Customer{testCustomer("c1", "Ada", "Okafor", "ada@example.com")}}
		svc := newTestDispatch(customers, &stubLogStore{}, &stubSettings{tmpl: testTemplate(), company: "Acme Corp"}, sender)

		_, err := svc.Run(context.Background(), time.Time{})
		require.NoError(t, err)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "Acme Corp <no-reply@mailer8.test>", sender.sent[0].From)
	})

	t.Run("configured from name otherwise", func(t *testing.T) {
		t.Parallel()

		sender := &stubSender{}
		customers := &stubCustomerStore{customers: []model.Customer{testCustomer("c1", "Ada", "Okafor", "ada@example.com")}}
		svc := newTestDispatch(customers, &stubLogStore{}, &stubSettings{tmpl: testTemplate()}, sender)

		_, err := svc.Run(context.Background(), time.Time{})
		require.NoError(t, err)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "Mailer8 <no-reply@mailer8.test>", sender.sent[0].From)
	})
}
