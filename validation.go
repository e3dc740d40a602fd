package compassAuth

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var personNamePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)

// FieldError describes one rejected RegisterInput field.
type FieldError struct {
	Field   string
	Rule    string
	Param   string
	Message string
}

// ValidationError wraps ErrInvalidInput with per-field detail. Message is the
// first field's message, suitable for display.
type ValidationError struct {
	Fields  []FieldError
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return ErrInvalidInput.Error()
	}
	return ErrInvalidInput.Error() + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func newInputValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("password_mix", func(fl validator.FieldLevel) bool {
		return hasPasswordMix(fl.Field().String())
	})
	_ = v.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	return v
}

func hasPasswordMix(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			lower = true
		case 'A' <= r && r <= 'Z':
			upper = true
		case '0' <= r && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

func validateRegisterInput(v *validator.Validate, in RegisterInput) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: err.Error()}
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: fieldMessage(fe.Field(), fe.Tag()),
		})
	}
	if len(out.Fields) > 0 {
		out.Message = out.Fields[0].Message
	}
	return out
}

func fieldMessage(field, rule string) string {
	switch field + "." + rule {
	case "Name.required":
		return "Name is required"
	case "Name.min":
		return "Name must be at least 2 characters"
	case "Name.person_name":
		return "Name can only contain letters and spaces"
	case "Email.required":
		return "Email is required"
	case "Email.email":
		return "Please enter a valid email address"
	case "Password.required":
		return "Password is required"
	case "Password.min":
		return "Password must be at least 8 characters"
	case "Password.password_mix":
		return "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	default:
		return field + " is invalid"
	}
}
