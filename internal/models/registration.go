package models

import "time"

// Registration is one booth lead captured by the public form.
// Field names mirror the hosted store table columns.
type Registration struct {
	ID             string    `json:"id,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Title          string    `json:"title"`
	Phone          string    `json:"phone"`
	Consent        bool      `json:"consent"`
	Company        *string   `json:"company,omitempty"`
	CorrectEmailID *string   `json:"correct_email_id,omitempty"`
	BookCollected  bool      `json:"book_collected"`
	TokenNumber    *string   `json:"token_number,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// RecipientEmail returns the address staff should use for delivery:
// the operator-corrected address when one has been recorded, otherwise
// the address submitted on the form.
func (r *Registration) RecipientEmail() string {
	if r.CorrectEmailID != nil && *r.CorrectEmailID != "" {
		return *r.CorrectEmailID
	}
	return r.Email
}
