package tokens

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/certinal/booth-backend/config"
)

// emailData feeds the confirmation email template.
type emailData struct {
	Name      string
	Token     string
	Dates     string
	Venue     string
	Booth     string
	BookTitle string
}

var emailTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <style>
      body { font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
      .header { background: linear-gradient(135deg, #14AC53 0%, #0d7a3a 100%); color: white; padding: 30px; text-align: center; border-radius: 8px 8px 0 0; }
      .content { background: #ffffff; padding: 30px; border: 1px solid #e0e0e0; border-top: none; }
      .token-box { background: #f5f5f5; border: 2px dashed #14AC53; border-radius: 8px; padding: 20px; text-align: center; margin: 20px 0; }
      .token-number { font-size: 32px; font-weight: bold; color: #14AC53; letter-spacing: 4px; }
      .footer { background: #f9f9f9; padding: 20px; text-align: center; font-size: 12px; color: #666; border-radius: 0 0 8px 8px; }
    </style>
  </head>
  <body>
    <div class="header">
      <h1>Thank You for Registering!</h1>
      <p>Certinal at Apollo THIT 2026</p>
    </div>
    <div class="content">
      <p>Dear {{.Name}},</p>
      <p>Thank you for registering to receive your copy of <strong>&quot;{{.BookTitle}}&quot;</strong> at THIT 2026!</p>
      <div class="token-box">
        <p style="margin: 0 0 10px 0; font-weight: bold;">Your Collection Token:</p>
        <div class="token-number">{{.Token}}</div>
      </div>
      <p><strong>Please present this token number at Booth {{.Booth}}</strong> to collect your complimentary copy of the book.</p>
      <p><strong>Event Details:</strong></p>
      <ul>
        <li><strong>Date:</strong> {{.Dates}}</li>
        <li><strong>Location:</strong> {{.Venue}}</li>
        <li><strong>Booth:</strong> {{.Booth}}</li>
      </ul>
      <p>We look forward to meeting you at the event!</p>
      <p>Best regards,<br>The Certinal Team</p>
    </div>
    <div class="footer">
      <p>This is an automated email. Please do not reply.</p>
      <p>&copy; 2026 Certinal. All Rights Reserved.</p>
    </div>
  </body>
</html>
`))

// RenderEmail produces the confirmation email body for one registrant.
func RenderEmail(name, token string, event config.EventConfig) (string, error) {
	if name == "" {
		name = "Valued Guest"
	}
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, emailData{
		Name:      name,
		Token:     token,
		Dates:     event.Dates,
		Venue:     event.Venue,
		Booth:     event.Booth,
		BookTitle: event.BookTitle,
	})
	if err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
