package validator

import (
	"github.com/aptitude-pro/quiz-service/internal/models"
)

// QuestionCreateRequest represents the request structure for posting questions
type QuestionCreateRequest struct {
	Text          string              `json:"text" validate:"required,min=1,max=2000"`
	Topic         string              `json:"topic" validate:"omitempty,max=100"`
	OptionA       string              `json:"option_a" validate:"required,max=200"`
	OptionB       string              `json:"option_b" validate:"required,max=200"`
	OptionC       string              `json:"option_c" validate:"required,max=200"`
	OptionD       string              `json:"option_d" validate:"required,max=200"`
	CorrectOption models.OptionSymbol `json:"correct_option" validate:"required,option_symbol"`
	Explanation   *string             `json:"explanation" validate:"omitempty,max=2000"`
	MeetLink      *string             `json:"meet_link" validate:"omitempty,meet_link"`

	// TimeLimit is interpreted in TimeUnit and stored as seconds.
	// Zero means no deadline.
	TimeLimit int             `json:"time_limit" validate:"omitempty,min=0"`
	TimeUnit  models.TimeUnit `json:"time_unit" validate:"omitempty,time_unit"`

	ImageFile *string `json:"image_file" validate:"omitempty,max=300"`
}

// QuestionUpdateRequest represents the request structure for editing questions
type QuestionUpdateRequest struct {
	Text          *string              `json:"text" validate:"omitempty,min=1,max=2000"`
	Topic         *string              `json:"topic" validate:"omitempty,max=100"`
	OptionA       *string              `json:"option_a" validate:"omitempty,max=200"`
	OptionB       *string              `json:"option_b" validate:"omitempty,max=200"`
	OptionC       *string              `json:"option_c" validate:"omitempty,max=200"`
	OptionD       *string              `json:"option_d" validate:"omitempty,max=200"`
	CorrectOption *models.OptionSymbol `json:"correct_option" validate:"omitempty,option_symbol"`
	Explanation   *string              `json:"explanation" validate:"omitempty,max=2000"`
	MeetLink      *string              `json:"meet_link" validate:"omitempty,meet_link"`
	TimeLimit     *int                 `json:"time_limit" validate:"omitempty,min=0"`
	TimeUnit      models.TimeUnit      `json:"time_unit" validate:"omitempty,time_unit"`
	ImageFile     *string              `json:"image_file" validate:"omitempty,max=300"`
}

// StartAttemptRequest opens a question for a student
type StartAttemptRequest struct {
	QuestionID  uint   `json:"question_id" validate:"required"`
	SessionData []byte `json:"session_data" validate:"omitempty"`
}

// SubmitAnswerRequest submits the single answer for a question
type SubmitAnswerRequest struct {
	QuestionID     uint                 `json:"question_id" validate:"required"`
	SelectedOption *models.OptionSymbol `json:"selected_option" validate:"omitempty,option_symbol"`
	FileName       *string              `json:"file_name" validate:"omitempty,max=255"`
}

// ClassroomUpdateRequest sets the live meet link shown to students
type ClassroomUpdateRequest struct {
	ActiveMeetLink *string `json:"active_meet_link" validate:"omitempty,meet_link"`
	DetectedTitle  *string `json:"detected_title" validate:"omitempty,max=200"`
	IsLive         *bool   `json:"is_live"`
}

// MeetLinkCreateRequest saves a link into the library
type MeetLinkCreateRequest struct {
	Label string `json:"label" validate:"required,min=1,max=100"`
	URL   string `json:"url" validate:"required,meet_link"`
}

// MeetLinkUpdateRequest edits a library entry
type MeetLinkUpdateRequest struct {
	Label    *string `json:"label" validate:"omitempty,min=1,max=100"`
	URL      *string `json:"url" validate:"omitempty,meet_link"`
	IsActive *bool   `json:"is_active"`
}

// EnrollRequest adds a student to the roster
type EnrollRequest struct {
	UserID string `json:"user_id" validate:"required,max=255"`
}

// RosterConfigRequest changes the member cap
type RosterConfigRequest struct {
	MaxMembers int `json:"max_members" validate:"required,min=1,max=500"`
}
