package repositories

import (
	"time"

	"github.com/aptitude-pro/quiz-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Topic     *string    `json:"topic"`
	CreatedBy *string    `json:"created_by"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "topic"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	StudentID  *string    `json:"student_id"`
	QuestionID *uint      `json:"question_id"`
	DateFrom   *time.Time `json:"date_from"`
	DateTo     *time.Time `json:"date_to"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
	SortBy     string     `json:"sort_by"`
	SortOrder  string     `json:"sort_order"`
}

type AnswerFilters struct {
	StudentID  *string    `json:"student_id"`
	QuestionID *uint      `json:"question_id"`
	IsCorrect  *bool      `json:"is_correct"`
	IsExpired  *bool      `json:"is_expired"`
	HasFile    *bool      `json:"has_file"`
	DateFrom   *time.Time `json:"date_from"`
	DateTo     *time.Time `json:"date_to"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
	SortBy     string     `json:"sort_by"`
	SortOrder  string     `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

// QuestionStats aggregates submission outcomes for one question.
type QuestionStats struct {
	AttemptCount int     `json:"attempt_count"`
	AnswerCount  int     `json:"answer_count"`
	CorrectCount int     `json:"correct_count"`
	ExpiredCount int     `json:"expired_count"`
	FileCount    int     `json:"file_count"`
	CorrectRate  float64 `json:"correct_rate"`
}

// StudentProgress summarizes one student's standing across all questions.
type StudentProgress struct {
	TotalQuestions int `json:"total_questions"`
	Started        int `json:"started"`
	Answered       int `json:"answered"`
	Correct        int `json:"correct"`
	Expired        int `json:"expired"`
}

// OptionBreakdown counts submissions per option symbol for one question.
type OptionBreakdown struct {
	Counts map[models.OptionSymbol]int `json:"counts"`
	Total  int                         `json:"total"`
}

// RosterStats reports enrollment against the configured cap.
type RosterStats struct {
	MemberCount int `json:"member_count"`
	MaxMembers  int `json:"max_members"`
}
