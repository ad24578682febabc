package validator

import (
	"fmt"
	"strings"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Meet links must point at Google Meet; anything else is rejected on ingest.
var allowedMeetLinkPrefixes = []string{
	"https://meet.google.com/",
	"https://meet.new/",
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// ToValidationErrors converts go-playground errors to the API error shape
func ToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors
	if err == nil {
		return errors
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{
			Field:   "request",
			Message: err.Error(),
			Rule:    "struct",
		}}
	}

	for _, fieldErr := range validationErrs {
		errors = append(errors, ValidationError{
			Field:   fieldErr.Field(),
			Message: messageForTag(fieldErr),
			Value:   fieldErr.Value(),
			Rule:    fieldErr.Tag(),
		})
	}
	return errors
}

func messageForTag(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "option_symbol":
		return "must be one of A, B, C, D"
	case "time_unit":
		return "must be one of seconds, minutes, days"
	case "meet_link":
		return "must be a Google Meet URL"
	case "time_limit":
		return "must be between 0 and 7 days"
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}

// Validator wraps struct validation for request DTOs
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered
func New() *Validator {
	validate := validator.New()
	registerCustomRules(validate)

	return &Validator{validate: validate}
}

// Validate validates a struct, returning ValidationErrors on failure
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidMeetLink reports whether a URL uses an allowed Meet prefix
func ValidMeetLink(url string) bool {
	for _, prefix := range allowedMeetLinkPrefixes {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

func registerCustomRules(validate *validator.Validate) {
	// Answer option symbol (A-D)
	validate.RegisterValidation("option_symbol", func(fl validator.FieldLevel) bool {
		return models.ValidOptionSymbol(models.OptionSymbol(fl.Field().String()))
	})

	// Time unit for limit ingestion
	validate.RegisterValidation("time_unit", func(fl validator.FieldLevel) bool {
		switch models.TimeUnit(fl.Field().String()) {
		case models.UnitSeconds, models.UnitMinutes, models.UnitDays:
			return true
		}
		return false
	})

	// Meet link prefix check
	validate.RegisterValidation("meet_link", func(fl validator.FieldLevel) bool {
		return ValidMeetLink(fl.Field().String())
	})

	// Time limit, zero disables the deadline, cap at 7 days in seconds
	validate.RegisterValidation("time_limit", func(fl validator.FieldLevel) bool {
		limit := fl.Field().Int()
		return limit >= 0 && limit <= 7*24*3600
	})
}
