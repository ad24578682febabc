package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aptitude-pro/quiz-service/internal/events"
	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/aptitude-pro/quiz-service/internal/validator"
	"gorm.io/gorm"
)

func TestNewQuestionService(t *testing.T) {
	type args struct {
		repo      repositories.Repository
		db        *gorm.DB
		logger    *slog.Logger
		validator *validator.BusinessValidator
	}
	tests := []struct {
		name string
		args args
		want QuestionService
	}{
		{name: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewQuestionService(tt.args.repo, tt.args.db, tt.args.logger, tt.args.validator, nil)
		})
	}
}

func validCreateRequest() *CreateQuestionRequest {
	return &CreateQuestionRequest{
		Text:          "Which HTTP status code means Too Many Requests?",
		Topic:         "http",
		OptionA:       "429",
		OptionB:       "418",
		OptionC:       "503",
		OptionD:       "451",
		CorrectOption: models.OptionA,
		TimeLimit:     5,
		TimeUnit:      models.UnitMinutes,
	}
}

func TestQuestionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("admin creates a question", func(t *testing.T) {
		env := newTestEnv(t)
		resp, err := env.questions.Create(ctx, validCreateRequest(), "admin-1")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if resp.Question.ID == 0 {
			t.Error("expected a stored question ID")
		}
		if resp.TimeLimitSeconds != 300 {
			t.Errorf("expected 5 minutes normalized to 300s, got %d", resp.TimeLimitSeconds)
		}

		posted := env.eventsOfType(events.EventQuestionPosted)
		if len(posted) != 1 {
			t.Errorf("expected 1 question posted event, got %d", len(posted))
		}
	})

	t.Run("empty time unit defaults to minutes", func(t *testing.T) {
		env := newTestEnv(t)
		req := validCreateRequest()
		req.TimeUnit = ""
		req.TimeLimit = 2
		resp, err := env.questions.Create(ctx, req, "admin-1")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if resp.TimeLimitSeconds != 120 {
			t.Errorf("expected 120s, got %d", resp.TimeLimitSeconds)
		}
	})

	t.Run("student cannot create", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.questions.Create(ctx, validCreateRequest(), "student-1")
		if !IsPermissionError(err) {
			t.Errorf("expected a permission error, got %v", err)
		}
	})

	t.Run("duplicate options rejected", func(t *testing.T) {
		env := newTestEnv(t)
		req := validCreateRequest()
		req.OptionB = req.OptionA
		_, err := env.questions.Create(ctx, req, "admin-1")
		if err == nil {
			t.Fatal("expected a validation error for duplicate options")
		}
	})

	t.Run("limit over seven days rejected", func(t *testing.T) {
		env := newTestEnv(t)
		req := validCreateRequest()
		req.TimeLimit = 8
		req.TimeUnit = models.UnitDays
		_, err := env.questions.Create(ctx, req, "admin-1")
		if err == nil {
			t.Fatal("expected a validation error for an 8 day limit")
		}
	})
}

func TestQuestionService_StudentView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	explanation := "429 is defined in RFC 6585"
	question := env.repo.addQuestion(&models.Question{
		Text:          "Which HTTP status code means Too Many Requests?",
		OptionA:       "429",
		OptionB:       "418",
		OptionC:       "503",
		OptionD:       "451",
		CorrectOption: models.OptionA,
		Explanation:   &explanation,
		CreatedBy:     "admin-1",
	})

	t.Run("grading fields hidden while open", func(t *testing.T) {
		resp, err := env.questions.GetByID(ctx, question.ID, "student-1", models.RoleStudent)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if resp.Question.CorrectOption != "" {
			t.Errorf("correct option leaked to an open pair: %s", resp.Question.CorrectOption)
		}
		if resp.Question.Explanation != nil {
			t.Error("explanation leaked to an open pair")
		}
		if resp.State != models.AttemptNotStarted {
			t.Errorf("expected state %s, got %s", models.AttemptNotStarted, resp.State)
		}
	})

	t.Run("admin always sees grading fields", func(t *testing.T) {
		resp, err := env.questions.GetByID(ctx, question.ID, "admin-1", models.RoleAdmin)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if resp.Question.CorrectOption != models.OptionA {
			t.Error("admin view lost the correct option")
		}
	})

	t.Run("answered pair sees the submission", func(t *testing.T) {
		if _, err := env.attempts.Start(ctx, &StartAttemptRequest{QuestionID: question.ID}, "student-1"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		selected := models.OptionA
		if _, err := env.attempts.Submit(ctx, &SubmitAnswerRequest{QuestionID: question.ID, SelectedOption: &selected}, "student-1", nil); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		resp, err := env.questions.GetByID(ctx, question.ID, "student-1", models.RoleStudent)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if resp.State != models.AttemptAnsweredOnTime {
			t.Errorf("expected state %s, got %s", models.AttemptAnsweredOnTime, resp.State)
		}
		if resp.SubmittedAnswer == nil {
			t.Fatal("expected the submitted answer on a terminal pair")
		}
		if resp.Question.CorrectOption != models.OptionA {
			t.Error("terminal pair should see the correct option")
		}
	})
}

func TestQuestionService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("edits apply before any answer", func(t *testing.T) {
		env := newTestEnv(t)
		created, err := env.questions.Create(ctx, validCreateRequest(), "admin-1")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		newText := "Updated question text"
		resp, err := env.questions.Update(ctx, created.Question.ID, &UpdateQuestionRequest{Text: &newText}, "admin-1")
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if resp.Question.Text != newText {
			t.Errorf("text not updated, got %q", resp.Question.Text)
		}
	})

	t.Run("refused once a student has answered", func(t *testing.T) {
		env := newTestEnv(t)
		created, err := env.questions.Create(ctx, validCreateRequest(), "admin-1")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if _, err := env.attempts.Start(ctx, &StartAttemptRequest{QuestionID: created.Question.ID}, "student-1"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		selected := models.OptionB
		if _, err := env.attempts.Submit(ctx, &SubmitAnswerRequest{QuestionID: created.Question.ID, SelectedOption: &selected}, "student-1", nil); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		// The whole row is immutable now, a wording-only edit is refused too
		newText := "Clarified wording"
		newOptionA := "Rephrased option"
		_, err = env.questions.Update(ctx, created.Question.ID, &UpdateQuestionRequest{Text: &newText, OptionA: &newOptionA}, "admin-1")
		if !errors.Is(err, ErrQuestionHasAnswers) {
			t.Fatalf("expected ErrQuestionHasAnswers, got %v", err)
		}

		stored, err := env.questions.GetByID(ctx, created.Question.ID, "admin-1", models.RoleAdmin)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if stored.Question.Text != created.Question.Text {
			t.Errorf("text changed despite refusal, got %q", stored.Question.Text)
		}
		if stored.CanEdit {
			t.Error("CanEdit should be false once answers exist")
		}
	})

	t.Run("student cannot update", func(t *testing.T) {
		env := newTestEnv(t)
		created, err := env.questions.Create(ctx, validCreateRequest(), "admin-1")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		newText := "nope"
		_, err = env.questions.Update(ctx, created.Question.ID, &UpdateQuestionRequest{Text: &newText}, "student-1")
		if !IsPermissionError(err) {
			t.Errorf("expected a permission error, got %v", err)
		}
	})
}

func TestQuestionService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.questions.Create(ctx, validCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := env.questions.Delete(ctx, created.Question.ID, "admin-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err = env.questions.GetByID(ctx, created.Question.ID, "admin-1", models.RoleAdmin)
	if !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("expected ErrQuestionNotFound after delete, got %v", err)
	}

	deleted := env.eventsOfType(events.EventQuestionDeleted)
	if len(deleted) != 1 {
		t.Errorf("expected 1 question deleted event, got %d", len(deleted))
	}

	if err := env.questions.Delete(ctx, created.Question.ID, "admin-1"); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("expected ErrQuestionNotFound for a second delete, got %v", err)
	}
}

func TestQuestionService_ListForStudent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.seedQuestion(t, 0)
	second := env.repo.addQuestion(&models.Question{
		Text:          "Pick B",
		OptionA:       "a",
		OptionB:       "b",
		OptionC:       "c",
		OptionD:       "d",
		CorrectOption: models.OptionB,
		CreatedBy:     "admin-1",
	})

	if _, err := env.attempts.Start(ctx, &StartAttemptRequest{QuestionID: first.ID}, "student-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	selected := models.OptionA
	if _, err := env.attempts.Submit(ctx, &SubmitAnswerRequest{QuestionID: first.ID, SelectedOption: &selected}, "student-1", nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	list, err := env.questions.ListForStudent(ctx, "student-1")
	if err != nil {
		t.Fatalf("ListForStudent failed: %v", err)
	}
	if len(list.Active) != 1 || list.Active[0].Question.ID != second.ID {
		t.Errorf("expected only the unanswered question in Active, got %d entries", len(list.Active))
	}
	if len(list.Completed) != 1 || list.Completed[0].Question.ID != first.ID {
		t.Errorf("expected the answered question in Completed, got %d entries", len(list.Completed))
	}
}

func TestQuestionService_GetStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	question := env.seedQuestion(t, 0)

	for studentID, option := range map[string]models.OptionSymbol{
		"student-1": models.OptionA,
		"student-2": models.OptionB,
	} {
		if _, err := env.attempts.Start(ctx, &StartAttemptRequest{QuestionID: question.ID}, studentID); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		opt := option
		if _, err := env.attempts.Submit(ctx, &SubmitAnswerRequest{QuestionID: question.ID, SelectedOption: &opt}, studentID, nil); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	resp, err := env.questions.GetStats(ctx, question.ID, "admin-1")
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if resp.Stats.AnswerCount != 2 || resp.Stats.CorrectCount != 1 {
		t.Errorf("unexpected stats: %+v", resp.Stats)
	}
	if resp.Breakdown.Counts[models.OptionA] != 1 || resp.Breakdown.Counts[models.OptionB] != 1 {
		t.Errorf("unexpected breakdown: %+v", resp.Breakdown.Counts)
	}

	if _, err := env.questions.GetStats(ctx, question.ID, "student-1"); !IsPermissionError(err) {
		t.Errorf("expected a permission error for a student, got %v", err)
	}
}
