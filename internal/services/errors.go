package services

import (
	"errors"
	"fmt"
)

// ===== SENTINEL ERRORS =====

var (
	// Question errors
	ErrQuestionNotFound   = errors.New("question not found")
	ErrQuestionHasAnswers = errors.New("question already has submitted answers")

	// Attempt errors
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrAttemptNotStarted = errors.New("question has not been started")

	// Answer errors
	ErrAnswerNotFound         = errors.New("answer not found")
	ErrAnswerAlreadySubmitted = errors.New("answer already submitted for this question")

	// Classroom errors
	ErrMeetLinkNotFound = errors.New("meet link not found")
	ErrInvalidMeetLink  = errors.New("meet link must be a Google Meet URL")

	// Roster errors
	ErrRosterFull      = errors.New("classroom roster is full")
	ErrAlreadyEnrolled = errors.New("student is already enrolled")
	ErrMemberNotFound  = errors.New("roster member not found")
	ErrUserNotFound    = errors.New("user not found")

	// Upload errors
	ErrFileNotAllowed = errors.New("file type is not allowed")
)

// ===== STRUCTURED ERRORS =====

// PermissionError carries who tried what on which resource
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError reports a domain rule violation with its rule name
type BusinessRuleError struct {
	Rule    string
	Message string
	Value   interface{}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, value interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Value:   value,
	}
}

// IsPermissionError reports whether err is a PermissionError
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsBusinessRuleError reports whether err is a BusinessRuleError
func IsBusinessRuleError(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}
