package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions.
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration.
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules.
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
		return true
	default:
		return false
	}
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:")
	for _, fieldErr := range errs {
		sb.WriteString(fmt.Sprintf("\n  - %s: failed %q validation", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("%s", sb.String())
}
