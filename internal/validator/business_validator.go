package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/aptitude-pro/quiz-service/internal/models"
)

// BusinessValidator handles business rule validation on top of struct tags
type BusinessValidator struct {
	validator *Validator
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{validator: New()}
}

// Validate validates struct tags for any request
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validator.Validate(s)
	if err != nil {
		if ve, ok := err.(ValidationErrors); ok {
			return ve
		}
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "struct"}}
	}
	return nil
}

// ValidateQuestionCreate validates question creation business rules
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validateQuestionBusinessRules(req)...)

	return errors
}

// ValidateQuestionUpdate validates the edit payload. Whether the question
// may still be edited at all is the service's call; once a student has
// answered, the whole row is immutable.
func (bv *BusinessValidator) ValidateQuestionUpdate(req *QuestionUpdateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.TimeLimit != nil {
		seconds := ConvertToSeconds(*req.TimeLimit, req.TimeUnit)
		if seconds > 7*24*3600 {
			errors = append(errors, ValidationError{
				Field:   "time_limit",
				Message: "cannot exceed 7 days",
				Value:   *req.TimeLimit,
				Rule:    "time_limit",
			})
		}
	}

	return errors
}

// ValidateDeadline checks a submission time against the attempt deadline
func (bv *BusinessValidator) ValidateDeadline(deadline *time.Time, submittedAt time.Time) ValidationErrors {
	var errors ValidationErrors

	if deadline != nil && submittedAt.After(*deadline) {
		errors = append(errors, ValidationError{
			Field:   "submitted_at",
			Message: "time limit has expired",
			Value:   submittedAt,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateEnrollment validates roster capacity before adding a member
func (bv *BusinessValidator) ValidateEnrollment(memberCount, maxMembers int) ValidationErrors {
	var errors ValidationErrors

	if memberCount >= maxMembers {
		errors = append(errors, ValidationError{
			Field:   "roster",
			Message: fmt.Sprintf("classroom is full (%d/%d members)", memberCount, maxMembers),
			Value:   memberCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

func (bv *BusinessValidator) validateQuestionBusinessRules(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// All four options must be distinct after trimming
	options := map[string]string{
		"option_a": req.OptionA,
		"option_b": req.OptionB,
		"option_c": req.OptionC,
		"option_d": req.OptionD,
	}
	seen := make(map[string]string, len(options))
	for field, text := range options {
		trimmed := strings.ToLower(strings.TrimSpace(text))
		if trimmed == "" {
			continue // the required tag already reported this
		}
		if prev, dup := seen[trimmed]; dup {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicates %s", prev),
				Value:   text,
				Rule:    "business_logic",
			})
			continue
		}
		seen[trimmed] = field
	}

	// Limit converted to seconds must stay under the cap
	seconds := ConvertToSeconds(req.TimeLimit, req.TimeUnit)
	if seconds > 7*24*3600 {
		errors = append(errors, ValidationError{
			Field:   "time_limit",
			Message: "cannot exceed 7 days",
			Value:   req.TimeLimit,
			Rule:    "time_limit",
		})
	}

	return errors
}

// ConvertToSeconds normalizes a limit in the given unit to seconds.
// An empty unit means minutes, matching the admin form default.
func ConvertToSeconds(limit int, unit models.TimeUnit) int {
	if limit <= 0 {
		return 0
	}
	switch unit {
	case models.UnitSeconds:
		return limit
	case models.UnitDays:
		return limit * 24 * 3600
	default:
		return limit * 60
	}
}
