package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/muurk/granitica/internal/lora"
)

// FieldError describes one rejected setting
type FieldError struct {
	Field   string // dotted YAML path, e.g. "radio.port"
	Tag     string
	Message string
}

// ValidationError lists every rejected setting
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their YAML names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("bandwidth", validateBandwidth)
	return v
}

// validateBandwidth accepts the bandwidths the transceiver can be set to
func validateBandwidth(fl validator.FieldLevel) bool {
	_, err := lora.BandwidthCode(fl.Field().Float())
	return err == nil
}

// Validate checks every setting and reports all failures at once.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			return newValidationError(errs)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Fields: make([]FieldError, len(errs))}
	for i, fe := range errs {
		// Namespace is "Config.radio.port"; drop the root type
		_, path, _ := strings.Cut(fe.Namespace(), ".")
		ve.Fields[i] = FieldError{
			Field:   path,
			Tag:     fe.Tag(),
			Message: formatFieldError(path, fe),
		}
	}
	return ve
}

func formatFieldError(path string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return path + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", path, fe.Param())
	case "bandwidth":
		return fmt.Sprintf("%s %v kHz is not a supported LoRa bandwidth", path, fe.Value())
	case "hostname_port":
		return path + " must be host:port"
	case "eq":
		return fmt.Sprintf("%s must be %s", path, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", path, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", path, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", path, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", path, fe.Tag())
	}
}
