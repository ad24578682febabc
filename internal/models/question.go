package models

import (
	"time"
)

// OptionSymbol is one of the four answer slots on a question.
type OptionSymbol string

const (
	OptionA OptionSymbol = "A"
	OptionB OptionSymbol = "B"
	OptionC OptionSymbol = "C"
	OptionD OptionSymbol = "D"
)

func ValidOptionSymbol(s OptionSymbol) bool {
	switch s {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// TimeUnit qualifies a time limit supplied at the API boundary. Storage is
// always seconds; the unit is converted on ingest and never persisted.
type TimeUnit string

const (
	UnitSeconds TimeUnit = "seconds"
	UnitMinutes TimeUnit = "minutes"
	UnitDays    TimeUnit = "days"
)

type Question struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Text  string `json:"text" gorm:"type:text;not null"`
	Topic string `json:"topic" gorm:"size:100;index"`

	OptionA string `json:"option_a" gorm:"not null;size:200"`
	OptionB string `json:"option_b" gorm:"not null;size:200"`
	OptionC string `json:"option_c" gorm:"not null;size:200"`
	OptionD string `json:"option_d" gorm:"not null;size:200"`

	CorrectOption OptionSymbol `json:"correct_option" gorm:"not null;size:1"`
	Explanation   *string      `json:"explanation" gorm:"type:text"`
	MeetLink      *string      `json:"meet_link" gorm:"size:500"`

	// TimeLimitSeconds anchors the per-student deadline at
	// attempt.StartedAt + limit. Zero disables the deadline.
	TimeLimitSeconds int `json:"time_limit_seconds" gorm:"not null;default:0"`

	ImageFile *string `json:"image_file" gorm:"size:300"`

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Creator  User              `json:"creator" gorm:"foreignKey:CreatedBy"`
	Attempts []QuestionAttempt `json:"attempts" gorm:"foreignKey:QuestionID"`
	Answers  []StudentAnswer   `json:"answers" gorm:"foreignKey:QuestionID"`

	// Computed
	AnswerCount int `json:"answer_count" gorm:"-"`
}

func (Question) TableName() string {
	return "questions"
}

// Deadline returns the submission cutoff for an attempt started at the
// given time, or nil when the question has no limit.
func (q *Question) Deadline(startedAt time.Time) *time.Time {
	if q.TimeLimitSeconds <= 0 {
		return nil
	}
	d := startedAt.Add(time.Duration(q.TimeLimitSeconds) * time.Second)
	return &d
}
