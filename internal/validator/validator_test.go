package validator

import (
	"testing"
	"time"

	"github.com/aptitude-pro/quiz-service/internal/models"
)

func validQuestionRequest() *QuestionCreateRequest {
	return &QuestionCreateRequest{
		Text:          "Which HTTP status code means Too Many Requests?",
		Topic:         "http",
		OptionA:       "429",
		OptionB:       "408",
		OptionC:       "503",
		OptionD:       "418",
		CorrectOption: models.OptionA,
		TimeLimit:     5,
		TimeUnit:      models.UnitMinutes,
	}
}

func hasFieldError(errs ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidator_QuestionCreate_Valid(t *testing.T) {
	v := New()

	if err := v.Validate(validQuestionRequest()); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}

func TestValidator_QuestionCreate_MissingFields(t *testing.T) {
	v := New()

	req := validQuestionRequest()
	req.Text = ""
	req.OptionC = ""

	err := v.Validate(req)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if !hasFieldError(errs, "Text") {
		t.Error("missing error for Text")
	}
	if !hasFieldError(errs, "OptionC") {
		t.Error("missing error for OptionC")
	}
}

func TestValidator_OptionSymbol(t *testing.T) {
	v := New()

	req := validQuestionRequest()
	req.CorrectOption = models.OptionSymbol("E")

	err := v.Validate(req)
	if err == nil {
		t.Fatal("expected validation error for invalid option symbol")
	}
	errs := err.(ValidationErrors)
	if !hasFieldError(errs, "CorrectOption") {
		t.Errorf("missing error for CorrectOption, got %v", errs)
	}
}

func TestValidator_TimeUnit(t *testing.T) {
	v := New()

	req := validQuestionRequest()
	req.TimeUnit = models.TimeUnit("hours")

	err := v.Validate(req)
	if err == nil {
		t.Fatal("expected validation error for invalid time unit")
	}

	// Empty unit is allowed and defaults to minutes downstream
	req.TimeUnit = ""
	if err := v.Validate(req); err != nil {
		t.Errorf("empty time unit should be valid, got %v", err)
	}
}

func TestValidMeetLink(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://meet.google.com/abc-defg-hij", true},
		{"https://meet.new/", true},
		{"https://zoom.us/j/123456", false},
		{"http://meet.google.com/abc-defg-hij", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidMeetLink(tt.url); got != tt.want {
			t.Errorf("ValidMeetLink(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestValidator_MeetLinkRule(t *testing.T) {
	v := New()

	link := "https://zoom.us/j/123456"
	req := validQuestionRequest()
	req.MeetLink = &link

	err := v.Validate(req)
	if err == nil {
		t.Fatal("expected validation error for non-Meet link")
	}
	errs := err.(ValidationErrors)
	if !hasFieldError(errs, "MeetLink") {
		t.Errorf("missing error for MeetLink, got %v", errs)
	}
}

func TestConvertToSeconds(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		unit  models.TimeUnit
		want  int
	}{
		{"seconds", 90, models.UnitSeconds, 90},
		{"minutes", 5, models.UnitMinutes, 300},
		{"days", 2, models.UnitDays, 172800},
		{"empty unit defaults to minutes", 3, "", 180},
		{"zero disables the limit", 0, models.UnitMinutes, 0},
		{"negative is clamped to zero", -5, models.UnitSeconds, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertToSeconds(tt.limit, tt.unit); got != tt.want {
				t.Errorf("ConvertToSeconds(%d, %q) = %d, want %d", tt.limit, tt.unit, got, tt.want)
			}
		})
	}
}

func TestBusinessValidator_QuestionCreate_DuplicateOptions(t *testing.T) {
	bv := NewBusinessValidator()

	req := validQuestionRequest()
	req.OptionB = " 429 " // same as A after trimming

	errs := bv.ValidateQuestionCreate(req)
	if len(errs) == 0 {
		t.Fatal("expected duplicate option error")
	}
	// Either side of the duplicate pair may be reported
	if !hasFieldError(errs, "option_a") && !hasFieldError(errs, "option_b") {
		t.Errorf("missing duplicate error for option_a/option_b, got %v", errs)
	}
}

func TestBusinessValidator_QuestionCreate_LimitCap(t *testing.T) {
	bv := NewBusinessValidator()

	req := validQuestionRequest()
	req.TimeLimit = 8
	req.TimeUnit = models.UnitDays

	errs := bv.ValidateQuestionCreate(req)
	if !hasFieldError(errs, "time_limit") {
		t.Errorf("expected time_limit cap error, got %v", errs)
	}

	req.TimeLimit = 7
	if errs := bv.ValidateQuestionCreate(req); len(errs) != 0 {
		t.Errorf("7 days should be within the cap, got %v", errs)
	}
}

func TestBusinessValidator_QuestionUpdate(t *testing.T) {
	bv := NewBusinessValidator()

	newOption := models.OptionB
	newLimit := 600
	req := &QuestionUpdateRequest{
		CorrectOption: &newOption,
		TimeLimit:     &newLimit,
	}
	if errs := bv.ValidateQuestionUpdate(req); len(errs) != 0 {
		t.Errorf("expected valid update payload, got %v", errs)
	}

	overCap := 8
	req = &QuestionUpdateRequest{TimeLimit: &overCap, TimeUnit: models.UnitDays}
	if errs := bv.ValidateQuestionUpdate(req); !hasFieldError(errs, "time_limit") {
		t.Errorf("expected time_limit cap error, got %v", errs)
	}
}

func TestBusinessValidator_Deadline(t *testing.T) {
	bv := NewBusinessValidator()

	deadline := time.Now().Add(time.Minute)

	if errs := bv.ValidateDeadline(&deadline, time.Now()); len(errs) != 0 {
		t.Errorf("submission before deadline should pass, got %v", errs)
	}
	if errs := bv.ValidateDeadline(&deadline, deadline.Add(time.Second)); len(errs) == 0 {
		t.Error("expected error for submission after deadline")
	}
	if errs := bv.ValidateDeadline(nil, time.Now().Add(time.Hour)); len(errs) != 0 {
		t.Errorf("nil deadline means no limit, got %v", errs)
	}
}

func TestBusinessValidator_Enrollment(t *testing.T) {
	bv := NewBusinessValidator()

	if errs := bv.ValidateEnrollment(49, 50); len(errs) != 0 {
		t.Errorf("expected room for one more member, got %v", errs)
	}
	if errs := bv.ValidateEnrollment(50, 50); len(errs) == 0 {
		t.Error("expected full roster error")
	}
}
