package model

import "time"

// EmailTemplate represents a stored HTML email template.
// Subject and Body may contain {{placeholder}} tokens that are
// substituted at send time.
type EmailTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
