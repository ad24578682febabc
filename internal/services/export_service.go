package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const answersSheet = "Answers"
const resultsSheet = "Results"
const questionsSheet = "Questions"

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportQuestionAnswers writes every submission for one question to an xlsx
func (s *exportService) ExportQuestionAnswers(ctx context.Context, questionID uint, userID string) ([]byte, string, error) {
	if err := s.requireAdmin(ctx, userID); err != nil {
		return nil, "", err
	}

	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrQuestionNotFound
		}
		return nil, "", fmt.Errorf("failed to get question: %w", err)
	}

	answers, _, err := s.repo.Answer().GetByQuestion(ctx, nil, questionID, repositories.AnswerFilters{
		SortBy:    "submitted_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to load answers: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(answersSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Student", "Full Name", "Selected Option", "Correct", "Expired", "File", "Submitted At"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(answersSheet, cell, header)
	}

	for row, answer := range answers {
		values := []interface{}{
			answer.Student.Username,
			answer.Student.FullName,
			optionOrEmpty(answer.SelectedOption),
			correctnessLabel(answer.IsCorrect),
			answer.IsExpired,
			stringOrEmpty(answer.FilePath),
			answer.SubmittedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(answersSheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("question_%d_answers_%s.xlsx", question.ID, time.Now().Format("20060102"))
	s.logger.Info("Exported question answers",
		"question_id", questionID,
		"rows", len(answers),
		"filename", filename)

	return buf.Bytes(), filename, nil
}

// ExportResults writes the full results matrix, one row per enrolled student
func (s *exportService) ExportResults(ctx context.Context, userID string) ([]byte, string, error) {
	if err := s.requireAdmin(ctx, userID); err != nil {
		return nil, "", err
	}

	members, _, err := s.repo.Roster().ListMembers(ctx, nil, repositories.UserFilters{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list members: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Student", "Full Name", "Questions", "Started", "Answered", "Correct", "Expired"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(resultsSheet, cell, header)
	}

	for row, member := range members {
		progress, err := s.repo.Answer().GetStudentProgress(ctx, nil, member.ID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to get progress for %s: %w", member.ID, err)
		}

		values := []interface{}{
			member.Username,
			member.FullName,
			progress.TotalQuestions,
			progress.Started,
			progress.Answered,
			progress.Correct,
			progress.Expired,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(resultsSheet, cell, value)
		}
	}

	if err := s.writeQuestionSummary(ctx, f); err != nil {
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("quiz_results_%s.xlsx", time.Now().Format("20060102"))
	s.logger.Info("Exported results", "students", len(members), "filename", filename)

	return buf.Bytes(), filename, nil
}

// writeQuestionSummary adds one row per question with aggregate outcomes
func (s *exportService) writeQuestionSummary(ctx context.Context, f *excelize.File) error {
	questions, _, err := s.repo.Question().List(ctx, nil, repositories.QuestionFilters{
		SortBy:    "created_at",
		SortOrder: "asc",
	})
	if err != nil {
		return fmt.Errorf("failed to list questions: %w", err)
	}

	if _, err := f.NewSheet(questionsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []string{"Question", "Topic", "Attempts", "Answers", "Correct", "Expired", "Correct Rate"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(questionsSheet, cell, header)
	}

	for row, question := range questions {
		stats, err := s.repo.Question().GetQuestionStats(ctx, nil, question.ID)
		if err != nil {
			return fmt.Errorf("failed to get stats for question %d: %w", question.ID, err)
		}

		values := []interface{}{
			question.Text,
			question.Topic,
			stats.AttemptCount,
			stats.AnswerCount,
			stats.CorrectCount,
			stats.ExpiredCount,
			stats.CorrectRate,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(questionsSheet, cell, value)
		}
	}

	return nil
}

func (s *exportService) requireAdmin(ctx context.Context, userID string) error {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(userID, 0, "export", "read", "insufficient role permissions")
	}
	return nil
}

func optionOrEmpty(option *models.OptionSymbol) string {
	if option == nil {
		return ""
	}
	return string(*option)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func correctnessLabel(isCorrect *bool) string {
	switch {
	case isCorrect == nil:
		return "ungraded"
	case *isCorrect:
		return "correct"
	default:
		return "incorrect"
	}
}
