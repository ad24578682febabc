package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/aptitude-pro/quiz-service/internal/validator"
	"gorm.io/gorm"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.BusinessValidator
	events    NotificationEventService
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.BusinessValidator, events NotificationEventService) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		events:    events,
	}
}

// ===== CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*QuestionResponse, error) {
	s.logger.Info("Creating question", "creator_id", creatorID, "topic", req.Topic)

	isAdmin, err := s.repo.User().HasRole(ctx, creatorID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(creatorID, 0, "question", "create", "insufficient role permissions")
	}

	if errs := s.validator.ValidateQuestionCreate(req); len(errs) > 0 {
		return nil, errs
	}

	question := &models.Question{
		Text:             req.Text,
		Topic:            req.Topic,
		OptionA:          req.OptionA,
		OptionB:          req.OptionB,
		OptionC:          req.OptionC,
		OptionD:          req.OptionD,
		CorrectOption:    req.CorrectOption,
		Explanation:      req.Explanation,
		MeetLink:         req.MeetLink,
		TimeLimitSeconds: validator.ConvertToSeconds(req.TimeLimit, req.TimeUnit),
		ImageFile:        req.ImageFile,
		CreatedBy:        creatorID,
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	if err := s.events.PublishQuestionPosted(ctx, question); err != nil {
		s.logger.Warn("Failed to publish question posted event", "error", err)
	}

	s.logger.Info("Question created", "question_id", question.ID, "creator_id", creatorID)

	return &QuestionResponse{
		Question:  question,
		CanEdit:   true,
		CanDelete: true,
	}, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint, userID string, role models.UserRole) (*QuestionResponse, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if role == models.RoleAdmin {
		count, err := s.repo.Answer().CountByQuestion(ctx, nil, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count answers: %w", err)
		}
		return &QuestionResponse{
			Question:    question,
			CanEdit:     count == 0,
			CanDelete:   true,
			AnswerCount: int(count),
		}, nil
	}

	return s.buildStudentView(ctx, question, userID)
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*QuestionResponse, error) {
	s.logger.Info("Updating question", "question_id", id, "user_id", userID)

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(userID, id, "question", "update", "insufficient role permissions")
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	count, err := s.repo.Answer().CountByQuestion(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}

	// Immutable once answered: a student has been graded against this row
	if count > 0 {
		return nil, ErrQuestionHasAnswers
	}

	if errs := s.validator.ValidateQuestionUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	s.applyQuestionUpdate(question, req)

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	return &QuestionResponse{
		Question:  question,
		CanEdit:   true,
		CanDelete: true,
	}, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting question", "question_id", id, "user_id", userID)

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(userID, id, "question", "delete", "insufficient role permissions")
	}

	exists, err := s.repo.Question().ExistsByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to check question: %w", err)
	}
	if !exists {
		return ErrQuestionNotFound
	}

	// Deleting cascades to attempts and answers in storage
	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	if err := s.events.PublishQuestionDeleted(ctx, id, userID); err != nil {
		s.logger.Warn("Failed to publish question deleted event", "error", err)
	}

	return nil
}

// ===== LISTING =====

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters, userID string) (*QuestionListResponse, error) {
	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	responses := make([]*QuestionResponse, 0, len(questions))
	for _, question := range questions {
		count, err := s.repo.Answer().CountByQuestion(ctx, nil, question.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count answers: %w", err)
		}
		responses = append(responses, &QuestionResponse{
			Question:    question,
			CanEdit:     count == 0,
			CanDelete:   true,
			AnswerCount: int(count),
		})
	}

	return &QuestionListResponse{
		Questions: responses,
		Total:     total,
		Page:      pageFromOffset(filters.Offset, filters.Limit),
		Size:      filters.Limit,
	}, nil
}

// ListForStudent splits the board into questions the student can still work
// on and questions they have finished with.
func (s *questionService) ListForStudent(ctx context.Context, studentID string) (*StudentQuestionList, error) {
	unanswered, err := s.repo.Question().GetUnansweredByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unanswered questions: %w", err)
	}
	answered, err := s.repo.Question().GetAnsweredByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answered questions: %w", err)
	}

	list := &StudentQuestionList{
		Active:    make([]*QuestionResponse, 0, len(unanswered)),
		Completed: make([]*QuestionResponse, 0, len(answered)),
	}

	for _, question := range unanswered {
		resp, err := s.buildStudentView(ctx, question, studentID)
		if err != nil {
			return nil, err
		}
		list.Active = append(list.Active, resp)
	}

	for _, question := range answered {
		resp, err := s.buildStudentView(ctx, question, studentID)
		if err != nil {
			return nil, err
		}
		list.Completed = append(list.Completed, resp)
	}

	return list, nil
}

func (s *questionService) GetStats(ctx context.Context, id uint, userID string) (*QuestionStatsResponse, error) {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(userID, id, "question", "view_stats", "insufficient role permissions")
	}

	exists, err := s.repo.Question().ExistsByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check question: %w", err)
	}
	if !exists {
		return nil, ErrQuestionNotFound
	}

	stats, err := s.repo.Question().GetQuestionStats(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question stats: %w", err)
	}

	breakdown, err := s.repo.Question().GetOptionBreakdown(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get option breakdown: %w", err)
	}

	return &QuestionStatsResponse{
		QuestionID: id,
		Stats:      stats,
		Breakdown:  breakdown,
	}, nil
}
