package email

import "context"

// Sender is the interface that all email providers must implement.
// This abstraction allows swapping email providers (Gmail, SMTP, SES,
// etc.) without changing business logic.
type Sender interface {
	// Send sends an email to the specified recipient. Ordinary
	// delivery failure is returned as an error; callers record it and
	// move on.
	Send(ctx context.Context, msg Message) error
}

// Message represents an email message to be sent.
type Message struct {
	To       string // recipient email address
	From     string // sender identity, "Name <addr>"; provider default when empty
	Subject  string // email subject
	HTMLBody string // HTML email body
	TextBody string // plain-text fallback body
}
