package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/aptitude-pro/quiz-service/internal/storage"
	"github.com/aptitude-pro/quiz-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.BusinessValidator
	store     storage.FileStore
	events    NotificationEventService
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.BusinessValidator, store storage.FileStore, events NotificationEventService) AttemptService {
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		store:     store,
		events:    events,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

// Start opens a question for a student. The first call creates the attempt
// and anchors the deadline; every later call returns that same attempt, so
// reopening a question never buys more time.
func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting question attempt",
		"question_id", req.QuestionID,
		"student_id", studentID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	question, err := s.repo.Question().GetByID(ctx, nil, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	attempt := &models.QuestionAttempt{
		StudentID:  studentID,
		QuestionID: req.QuestionID,
		StartedAt:  time.Now(),
	}
	if len(req.SessionData) > 0 {
		attempt.SessionData = datatypes.JSON(req.SessionData)
	}

	stored, err := s.repo.Attempt().GetOrCreate(ctx, nil, attempt)
	if err != nil {
		return nil, fmt.Errorf("failed to start attempt: %w", err)
	}

	deadline := question.Deadline(stored.StartedAt)

	// The insert assigns an ID only when this call actually created the row
	if attempt.ID != 0 && attempt.ID == stored.ID {
		if err := s.events.PublishAttemptStarted(ctx, stored, deadline); err != nil {
			s.logger.Warn("Failed to publish attempt started event", "error", err)
		}
	} else {
		s.logger.Info("Attempt already exists, returning original",
			"attempt_id", stored.ID,
			"started_at", stored.StartedAt)
	}

	answer, err := s.getAnswerOrNil(ctx, studentID, req.QuestionID)
	if err != nil {
		return nil, err
	}

	return s.buildAttemptResponse(stored, question, answer), nil
}

// Submit records the single answer for a (student, question) pair. The
// deadline is checked at submission time against the attempt's StartedAt.
func (s *attemptService) Submit(ctx context.Context, req *SubmitAnswerRequest, studentID string, file *SubmittedFile) (*AnswerResponse, error) {
	s.logger.Info("Submitting answer",
		"question_id", req.QuestionID,
		"student_id", studentID,
		"has_file", file != nil)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	question, err := s.repo.Question().GetByID(ctx, nil, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	attempt, err := s.repo.Attempt().GetByStudentAndQuestion(ctx, nil, studentID, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotStarted
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	exists, err := s.repo.Answer().ExistsByStudentAndQuestion(ctx, nil, studentID, req.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing answer: %w", err)
	}
	if exists {
		return nil, ErrAnswerAlreadySubmitted
	}

	now := time.Now()
	deadline := question.Deadline(attempt.StartedAt)
	expired := deadline != nil && now.After(*deadline)

	answer := &models.StudentAnswer{
		StudentID:      studentID,
		QuestionID:     req.QuestionID,
		SelectedOption: req.SelectedOption,
		IsExpired:      expired,
		SubmittedAt:    now,
	}

	if expired {
		// Late submissions are recorded but never graded correct, and any
		// uploaded file is discarded.
		incorrect := false
		answer.IsCorrect = &incorrect
		s.logger.Info("Answer submitted after deadline",
			"question_id", req.QuestionID,
			"student_id", studentID,
			"deadline", deadline)
	} else {
		if req.SelectedOption != nil {
			correct := *req.SelectedOption == question.CorrectOption
			answer.IsCorrect = &correct
		}
		// Submissions without a selection carry no correctness, IsCorrect
		// stays nil. An empty submission is still recorded as the pair's
		// single answer.

		if file != nil {
			key, err := s.store.Save(ctx, studentID, file.Name, file.Reader)
			if err != nil {
				if err == storage.ErrDisallowedExtension {
					return nil, ErrFileNotAllowed
				}
				return nil, fmt.Errorf("failed to store answer file: %w", err)
			}
			answer.FilePath = &key
		}
	}

	if err := s.repo.Answer().Create(ctx, nil, answer); err != nil {
		// Lost a race against a concurrent submission for the same pair
		if repositories.IsDuplicateError(err) {
			if answer.FilePath != nil {
				if rmErr := s.store.Remove(ctx, *answer.FilePath); rmErr != nil {
					s.logger.Warn("Failed to remove orphaned upload", "key", *answer.FilePath, "error", rmErr)
				}
			}
			return nil, ErrAnswerAlreadySubmitted
		}
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	if err := s.events.PublishAnswerSubmitted(ctx, answer); err != nil {
		s.logger.Warn("Failed to publish answer submitted event", "error", err)
	}

	s.logger.Info("Answer submitted",
		"question_id", req.QuestionID,
		"student_id", studentID,
		"is_expired", answer.IsExpired,
		"is_correct", answer.IsCorrect)

	return s.buildAnswerResponse(answer, question, true), nil
}

// ===== READ OPERATIONS =====

func (s *attemptService) GetAttempt(ctx context.Context, questionID uint, studentID string) (*AttemptResponse, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	attempt, err := s.repo.Attempt().GetByStudentAndQuestion(ctx, nil, studentID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	answer, err := s.getAnswerOrNil(ctx, studentID, questionID)
	if err != nil {
		return nil, err
	}

	return s.buildAttemptResponse(attempt, question, answer), nil
}

func (s *attemptService) GetAnswer(ctx context.Context, questionID uint, studentID string) (*AnswerResponse, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	answer, err := s.repo.Answer().GetByStudentAndQuestion(ctx, nil, studentID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	return s.buildAnswerResponse(answer, question, true), nil
}

func (s *attemptService) ListAnswers(ctx context.Context, questionID uint, filters repositories.AnswerFilters, userID string) (*AnswerListResponse, error) {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		// Students only ever see their own submissions
		filters.StudentID = &userID
	}

	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	answers, total, err := s.repo.Answer().GetByQuestion(ctx, nil, questionID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	responses := make([]*AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		// Every listed answer is terminal for its pair, so reveal grading
		responses = append(responses, s.buildAnswerResponse(answer, question, true))
	}

	return &AnswerListResponse{
		Answers: responses,
		Total:   total,
		Page:    pageFromOffset(filters.Offset, filters.Limit),
		Size:    filters.Limit,
	}, nil
}

// TimeRemaining reports seconds left for the pair, clamped at zero once the
// deadline passes. NoLimitSentinel means the question has no limit at all.
func (s *attemptService) TimeRemaining(ctx context.Context, questionID uint, studentID string) (int64, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrQuestionNotFound
		}
		return 0, fmt.Errorf("failed to get question: %w", err)
	}

	if question.TimeLimitSeconds <= 0 {
		return NoLimitSentinel, nil
	}

	attempt, err := s.repo.Attempt().GetByStudentAndQuestion(ctx, nil, studentID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrAttemptNotStarted
		}
		return 0, fmt.Errorf("failed to get attempt: %w", err)
	}

	deadline := question.Deadline(attempt.StartedAt)
	remaining := int64(time.Until(*deadline).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *attemptService) GetState(ctx context.Context, questionID uint, studentID string) (models.AttemptState, error) {
	attempt, err := s.getAttemptOrNil(ctx, studentID, questionID)
	if err != nil {
		return "", err
	}
	answer, err := s.getAnswerOrNil(ctx, studentID, questionID)
	if err != nil {
		return "", err
	}
	return models.State(attempt, answer), nil
}

func (s *attemptService) GetStudentProgress(ctx context.Context, studentID string) (*repositories.StudentProgress, error) {
	progress, err := s.repo.Answer().GetStudentProgress(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student progress: %w", err)
	}
	return progress, nil
}
