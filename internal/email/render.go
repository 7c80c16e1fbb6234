package email

import (
	"regexp"
	"strings"

	"github.com/mailer8/mailer8/internal/model"
)

var placeholderPattern = regexp.MustCompile(`{{\w+}}`)

// Render substitutes {{key}} placeholders in tmpl with values from ctx.
// Every occurrence of a key present in ctx is replaced, an empty value
// substituting to the empty string. Remaining {{word}} tokens are
// blanked so unknown placeholders never leak into sent mail. Pure
// string transformation, no I/O.
func Render(tmpl string, ctx map[string]string) string {
	rendered := tmpl
	for key, value := range ctx {
		rendered = strings.ReplaceAll(rendered, "{{"+key+"}}", value)
	}
	return placeholderPattern.ReplaceAllString(rendered, "")
}

// NewContext builds the placeholder context for a customer. The dob
// value uses the "DD MMM" wire format (zero-padded day, three-letter
// English month, no year) that stored templates rely on.
func NewContext(c *model.Customer) map[string]string {
	return map[string]string{
		"firstName": c.FirstName,
		"lastName":  c.LastName,
		"email":     c.Email,
		"dob":       c.DOB.Format("02 Jan"),
	}
}
