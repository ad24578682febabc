package services

import (
	"context"
	"io"
	"time"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/aptitude-pro/quiz-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type StartAttemptRequest = validator.StartAttemptRequest
type SubmitAnswerRequest = validator.SubmitAnswerRequest
type ClassroomUpdateRequest = validator.ClassroomUpdateRequest
type MeetLinkCreateRequest = validator.MeetLinkCreateRequest
type MeetLinkUpdateRequest = validator.MeetLinkUpdateRequest
type EnrollRequest = validator.EnrollRequest
type RosterConfigRequest = validator.RosterConfigRequest

type QuestionResponse struct {
	*models.Question
	CanEdit     bool `json:"can_edit"`
	CanDelete   bool `json:"can_delete"`
	AnswerCount int  `json:"answer_count"`

	// Per-student view fields, zero-valued for admin listings
	State           models.AttemptState `json:"state,omitempty"`
	TimeRemaining   *int64              `json:"time_remaining,omitempty"`
	SubmittedAnswer *AnswerResponse     `json:"submitted_answer,omitempty"`
}

type QuestionListResponse struct {
	Questions []*QuestionResponse `json:"questions"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
}

// StudentQuestionList splits the board the way students see it: questions
// still open to them and questions they are done with.
type StudentQuestionList struct {
	Active    []*QuestionResponse `json:"active"`
	Completed []*QuestionResponse `json:"completed"`
}

type AttemptResponse struct {
	*models.QuestionAttempt
	Deadline *time.Time `json:"deadline,omitempty"`

	// Seconds until the deadline, clamped at zero. NoLimitSentinel when
	// the question has no time limit.
	TimeRemaining int64               `json:"time_remaining"`
	State         models.AttemptState `json:"state"`
}

type AnswerResponse struct {
	*models.StudentAnswer
	State models.AttemptState `json:"state"`

	// Explanation is only revealed after the pair reaches a terminal state
	Explanation   *string              `json:"explanation,omitempty"`
	CorrectOption *models.OptionSymbol `json:"correct_option,omitempty"`
}

type AnswerListResponse struct {
	Answers []*AnswerResponse `json:"answers"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

type QuestionStatsResponse struct {
	QuestionID uint                          `json:"question_id"`
	Stats      *repositories.QuestionStats   `json:"stats"`
	Breakdown  *repositories.OptionBreakdown `json:"breakdown"`
}

type ClassroomResponse struct {
	*models.Classroom
	MeetLinks []*models.MeetLink `json:"meet_links,omitempty"`
}

type RosterMemberResponse struct {
	*models.User
	Progress *repositories.StudentProgress `json:"progress,omitempty"`
}

type RosterResponse struct {
	Members []*RosterMemberResponse   `json:"members"`
	Total   int64                     `json:"total"`
	Stats   *repositories.RosterStats `json:"stats"`
}

// SubmittedFile carries an uploaded answer file into the service layer
type SubmittedFile struct {
	Name   string
	Reader io.Reader
}

// NoLimitSentinel is the TimeRemaining value for questions without a limit
const NoLimitSentinel int64 = -1

// ===== SERVICE INTERFACES =====

type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*QuestionResponse, error)
	GetByID(ctx context.Context, id uint, userID string, role models.UserRole) (*QuestionResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*QuestionResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	List(ctx context.Context, filters repositories.QuestionFilters, userID string) (*QuestionListResponse, error)
	ListForStudent(ctx context.Context, studentID string) (*StudentQuestionList, error)

	GetStats(ctx context.Context, id uint, userID string) (*QuestionStatsResponse, error)
}

type AttemptService interface {
	// Start opens the question for the student. Idempotent: a second start
	// returns the original attempt unchanged.
	Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error)

	// Submit records the single answer for the pair, grading against the
	// deadline derived from the attempt's StartedAt.
	Submit(ctx context.Context, req *SubmitAnswerRequest, studentID string, file *SubmittedFile) (*AnswerResponse, error)

	GetAttempt(ctx context.Context, questionID uint, studentID string) (*AttemptResponse, error)
	GetAnswer(ctx context.Context, questionID uint, studentID string) (*AnswerResponse, error)
	ListAnswers(ctx context.Context, questionID uint, filters repositories.AnswerFilters, userID string) (*AnswerListResponse, error)

	// TimeRemaining returns seconds left, zero once expired, or
	// NoLimitSentinel when the question has no limit.
	TimeRemaining(ctx context.Context, questionID uint, studentID string) (int64, error)

	GetState(ctx context.Context, questionID uint, studentID string) (models.AttemptState, error)
	GetStudentProgress(ctx context.Context, studentID string) (*repositories.StudentProgress, error)
}

type ClassroomService interface {
	Get(ctx context.Context, role models.UserRole) (*ClassroomResponse, error)
	Update(ctx context.Context, req *ClassroomUpdateRequest, userID string) (*ClassroomResponse, error)

	// Link library
	CreateMeetLink(ctx context.Context, req *MeetLinkCreateRequest, userID string) (*models.MeetLink, error)
	UpdateMeetLink(ctx context.Context, id uint, req *MeetLinkUpdateRequest, userID string) (*models.MeetLink, error)
	DeleteMeetLink(ctx context.Context, id uint, userID string) error
	ListMeetLinks(ctx context.Context, activeOnly bool) ([]*models.MeetLink, error)

	// ActivateMeetLink copies a library entry into the live classroom
	ActivateMeetLink(ctx context.Context, id uint, userID string) (*ClassroomResponse, error)
}

type RosterService interface {
	Enroll(ctx context.Context, req *EnrollRequest, adminID string) (*RosterMemberResponse, error)
	Remove(ctx context.Context, userID string, adminID string) error
	List(ctx context.Context, filters repositories.UserFilters, includeProgress bool) (*RosterResponse, error)
	GetStats(ctx context.Context) (*repositories.RosterStats, error)
	UpdateConfig(ctx context.Context, req *RosterConfigRequest, adminID string) (*models.RosterConfig, error)
}

type ExportService interface {
	// ExportQuestionAnswers writes one question's submissions as an xlsx
	ExportQuestionAnswers(ctx context.Context, questionID uint, userID string) ([]byte, string, error)

	// ExportResults writes the full results matrix, one row per student
	ExportResults(ctx context.Context, userID string) ([]byte, string, error)
}

type NotificationEventService interface {
	PublishQuestionPosted(ctx context.Context, question *models.Question) error
	PublishQuestionDeleted(ctx context.Context, questionID uint, deletedBy string) error
	PublishAttemptStarted(ctx context.Context, attempt *models.QuestionAttempt, deadline *time.Time) error
	PublishAnswerSubmitted(ctx context.Context, answer *models.StudentAnswer) error
	PublishClassroomChanged(ctx context.Context, classroom *models.Classroom) error
	PublishStudentEnrolled(ctx context.Context, user *models.User) error
}

// ServiceManager wires every service behind one lifecycle
type ServiceManager interface {
	// Core service getters
	Question() QuestionService
	Attempt() AttemptService
	Classroom() ClassroomService
	Roster() RosterService
	Export() ExportService
	Events() NotificationEventService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
