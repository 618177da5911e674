package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers awaymail-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("mail_template", validateMailTemplate); err != nil {
		return fmt.Errorf("failed to register mail_template validator: %w", err)
	}
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

// validateDuration checks that a string field parses as a positive
// time.Duration.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// validateMailTemplate accepts an empty template (part omitted) or one that
// contains the body placeholder exactly where the user put it. A template
// that mentions a malformed placeholder such as "$IMBODY$" is rejected.
func validateMailTemplate(fl validator.FieldLevel) bool {
	tmpl := fl.Field().String()
	if tmpl == "" || strings.Contains(tmpl, BodyPlaceholder) {
		return true
	}
	return !strings.Contains(strings.ToUpper(tmpl), "IMBODY")
}

// Validate validates the Config using struct tags and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if c.Directory.Driver == "sqlite" && c.Directory.DSN == "" {
		return errors.New("directory.dsn is required for the sqlite driver")
	}

	if c.Forwarding.BodyPlain == "" && c.Forwarding.BodyHTML == "" {
		return errors.New("forwarding.body_plain and forwarding.body_html cannot both be empty")
	}

	if !c.Forwarding.UseAddressAsEmail && c.Forwarding.DefaultEmail == "" {
		return errors.New("forwarding.default_email is required when use_address_as_email is false")
	}

	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid e-mail address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "hostname", "fqdn|hostname":
		return fmt.Sprintf("%s must be a valid domain name", field)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration such as 5s", field)
	case "mail_template":
		return fmt.Sprintf("%s must use the %s placeholder", field, BodyPlaceholder)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
