package events

import (
	"context"
	"time"

	"github.com/aptitude-pro/quiz-service/internal/models"
)

// Event types emitted by the quiz service
const (
	EventQuestionPosted   = "quiz.question_posted"
	EventQuestionDeleted  = "quiz.question_deleted"
	EventAttemptStarted   = "quiz.attempt_started"
	EventAnswerSubmitted  = "quiz.answer_submitted"
	EventClassroomChanged = "classroom.live_changed"
	EventStudentEnrolled  = "roster.student_enrolled"
)

// Source identifies this service in every published event
const Source = "quiz-service"

// Version is the event envelope schema version
const Version = "1.0"

// Event is the envelope published to the message broker
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// ===== EVENT PAYLOADS =====

type QuestionPostedEvent struct {
	QuestionID       uint   `json:"question_id"`
	Topic            string `json:"topic,omitempty"`
	CreatedBy        string `json:"created_by"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
	HasMeetLink      bool   `json:"has_meet_link"`
}

type QuestionDeletedEvent struct {
	QuestionID uint   `json:"question_id"`
	DeletedBy  string `json:"deleted_by"`
}

type AttemptStartedEvent struct {
	QuestionID uint       `json:"question_id"`
	StudentID  string     `json:"student_id"`
	StartedAt  time.Time  `json:"started_at"`
	Deadline   *time.Time `json:"deadline,omitempty"`
}

type AnswerSubmittedEvent struct {
	QuestionID     uint                 `json:"question_id"`
	StudentID      string               `json:"student_id"`
	SelectedOption *models.OptionSymbol `json:"selected_option,omitempty"`
	HasFile        bool                 `json:"has_file"`
	IsCorrect      *bool                `json:"is_correct,omitempty"`
	IsExpired      bool                 `json:"is_expired"`
	SubmittedAt    time.Time            `json:"submitted_at"`
}

type ClassroomChangedEvent struct {
	IsLive         bool    `json:"is_live"`
	ActiveMeetLink *string `json:"active_meet_link,omitempty"`
}

type StudentEnrolledEvent struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
