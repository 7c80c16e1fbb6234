package model

import "time"

// EmailStatus represents the outcome of a send attempt
type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "SENT"
	EmailStatusFailed EmailStatus = "FAILED"
)

// EmailLog is the durable audit record of one send attempt. Exactly one
// row is written per (customer, attempt); rows are never updated or
// deleted. A SENT row within the current calendar day is what makes the
// dispatch job idempotent.
type EmailLog struct {
	ID           string      `json:"id"`
	CustomerID   string      `json:"customerId"`
	TemplateID   string      `json:"templateId"`
	ToEmail      string      `json:"toEmail"`
	Subject      string      `json:"subject"`
	Body         string      `json:"-"`
	Status       EmailStatus `json:"status"`
	ErrorMessage *string     `json:"errorMessage,omitempty"`
	SentAt       time.Time   `json:"sentAt"`
}

// EmailLogStats aggregates send outcomes over a period
type EmailLogStats struct {
	TotalEmails  int     `json:"totalEmails"`
	SentEmails   int     `json:"sentEmails"`
	FailedEmails int     `json:"failedEmails"`
	SuccessRate  float64 `json:"successRate"`
}
