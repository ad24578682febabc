package models

import (
	"time"

	"gorm.io/datatypes"
)

// AttemptState describes where a (student, question) pair sits in its
// lifecycle. Terminal states are never left.
type AttemptState string

const (
	AttemptNotStarted     AttemptState = "not_started"
	AttemptInProgress     AttemptState = "in_progress"
	AttemptAnsweredOnTime AttemptState = "answered_on_time"
	AttemptAnsweredLate   AttemptState = "answered_late"
)

// QuestionAttempt records the first time a student opened a question.
// StartedAt anchors the deadline and is immutable once written; the unique
// index guarantees a single row per (student, question) pair.
type QuestionAttempt struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	StudentID  string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_attempt_student_question"`
	QuestionID uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_student_question"`

	StartedAt time.Time `json:"started_at" gorm:"not null"`

	// Browser info captured at start, for the admin history view.
	SessionData datatypes.JSON `json:"session_data" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Student  User     `json:"student" gorm:"foreignKey:StudentID"`
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (QuestionAttempt) TableName() string {
	return "question_attempts"
}

// StudentAnswer is the single graded submission for a (student, question)
// pair. The unique index makes "at most one answer per pair" a storage
// invariant rather than an application convention.
type StudentAnswer struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	StudentID  string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_answer_student_question"`
	QuestionID uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_student_question"`

	// Nil when the student uploaded a file without choosing an option.
	SelectedOption *OptionSymbol `json:"selected_option" gorm:"size:1"`
	FilePath       *string       `json:"file_path" gorm:"size:300"`

	// Nil when no option was selected; a pure file submission is neither
	// right nor wrong. IsExpired=true forces IsCorrect=false.
	IsCorrect *bool `json:"is_correct"`
	IsExpired bool  `json:"is_expired" gorm:"not null;default:false"`

	SubmittedAt time.Time `json:"submitted_at" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Student  User     `json:"student" gorm:"foreignKey:StudentID"`
	Question Question `json:"question" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}

// State derives the lifecycle position from an attempt/answer pair, either
// of which may be nil.
func State(attempt *QuestionAttempt, answer *StudentAnswer) AttemptState {
	switch {
	case answer != nil && answer.IsExpired:
		return AttemptAnsweredLate
	case answer != nil:
		return AttemptAnsweredOnTime
	case attempt != nil:
		return AttemptInProgress
	default:
		return AttemptNotStarted
	}
}
