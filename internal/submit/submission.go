// Package submit implements the public registration intake: field
// validation, the form state machine, and the insert-plus-event path.
package submit

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Submission holds the intake fields of one registration attempt.
type Submission struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email"`
	Title   string  `json:"title" validate:"required"`
	Phone   string  `json:"phone" validate:"required"`
	Consent bool    `json:"consent" validate:"required"`
	Company *string `json:"company,omitempty"`
}

// ValidationError is a client-side rejection; it never reaches the store.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s", e.Field)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the four required fields and the consent flag.
// The boolean "required" tag rejects false, which is exactly the
// consent rule: a submission without consent is invalid.
func (s Submission) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Field: verrs[0].Field()}
		}
		return &ValidationError{Field: "submission"}
	}
	return nil
}

// Complete reports whether every required field is filled and consent is
// given; the form enables its submit action only when this is true.
func (s Submission) Complete() bool {
	return s.Name != "" && s.Email != "" && s.Title != "" && s.Phone != "" && s.Consent
}
