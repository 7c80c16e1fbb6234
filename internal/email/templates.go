package email

// DefaultBirthdayTemplateName is the name of the seeded template.
const DefaultBirthdayTemplateName = "Classic Birthday"

// DefaultBirthdaySubject is the seeded birthday subject line.
const DefaultBirthdaySubject = "Happy Birthday {{firstName}}!"

// DefaultBirthdayHTML returns the HTML body for the seeded birthday
// template. Placeholders are resolved at send time by Render.
func DefaultBirthdayHTML() string {
	return `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #4a90e2; text-align: center;">Happy Birthday!</h1>
  <p style="font-size: 18px; line-height: 1.6;">
    Dear {{firstName}},
  </p>
  <p style="font-size: 16px; line-height: 1.6; color: #333;">
    Wishing you a very happy birthday! We hope your special day on {{dob}} is filled
    with joy, laughter, and wonderful memories.
  </p>
  <p style="font-size: 16px; line-height: 1.6; color: #333;">
    Thank you for being part of our community. May this new year of life bring you
    happiness, success, and all the things you've been hoping for.
  </p>
  <div style="text-align: center; margin: 30px 0;">
    <p style="font-size: 20px; color: #4a90e2; font-weight: bold;">
      Enjoy your special day!
    </p>
  </div>
  <p style="font-size: 14px; color: #666; text-align: center;">
    Best wishes,<br>
    The Mailer8 Team
  </p>
</div>`
}
