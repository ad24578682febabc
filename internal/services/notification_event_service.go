package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/aptitude-pro/quiz-service/internal/events"
	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/aptitude-pro/quiz-service/internal/validator"
)

type notificationEventService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.BusinessValidator
}

func NewNotificationEventService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.BusinessValidator) NotificationEventService {
	return &notificationEventService{
		repo:           repo,
		eventPublisher: publisher,
		logger:         logger,
		validator:      validator,
	}
}

func (s *notificationEventService) PublishQuestionPosted(ctx context.Context, question *models.Question) error {
	return s.eventPublisher.Publish(ctx, &events.Event{
		Type: events.EventQuestionPosted,
		Data: events.QuestionPostedEvent{
			QuestionID:       question.ID,
			Topic:            question.Topic,
			CreatedBy:        question.CreatedBy,
			TimeLimitSeconds: question.TimeLimitSeconds,
			HasMeetLink:      question.MeetLink != nil,
		},
	})
}

func (s *notificationEventService) PublishQuestionDeleted(ctx context.Context, questionID uint, deletedBy string) error {
	return s.eventPublisher.Publish(ctx, &events.Event{
		Type: events.EventQuestionDeleted,
		Data: events.QuestionDeletedEvent{
			QuestionID: questionID,
			DeletedBy:  deletedBy,
		},
	})
}

func (s *notificationEventService) PublishAttemptStarted(ctx context.Context, attempt *models.QuestionAttempt, deadline *time.Time) error {
	return s.eventPublisher.Publish(ctx, &events.Event{
		Type: events.EventAttemptStarted,
		Data: events.AttemptStartedEvent{
			QuestionID: attempt.QuestionID,
			StudentID:  attempt.StudentID,
			StartedAt:  attempt.StartedAt,
			Deadline:   deadline,
		},
	})
}

func (s *notificationEventService) PublishAnswerSubmitted(ctx context.Context, answer *models.StudentAnswer) error {
	return s.eventPublisher.Publish(ctx, &events.Event{
		Type: events.EventAnswerSubmitted,
		Data: events.AnswerSubmittedEvent{
			QuestionID:     answer.QuestionID,
			StudentID:      answer.StudentID,
			SelectedOption: answer.SelectedOption,
			HasFile:        answer.FilePath != nil,
			IsCorrect:      answer.IsCorrect,
			IsExpired:      answer.IsExpired,
			SubmittedAt:    answer.SubmittedAt,
		},
	})
}

func (s *notificationEventService) PublishClassroomChanged(ctx context.Context, classroom *models.Classroom) error {
	return s.eventPublisher.Publish(ctx, &events.Event{
		Type: events.EventClassroomChanged,
		Data: events.ClassroomChangedEvent{
			IsLive:         classroom.IsLive,
			ActiveMeetLink: classroom.ActiveMeetLink,
		},
	})
}

func (s *notificationEventService) PublishStudentEnrolled(ctx context.Context, user *models.User) error {
	return s.eventPublisher.Publish(ctx, &events.Event{
		Type: events.EventStudentEnrolled,
		Data: events.StudentEnrolledEvent{
			UserID:   user.ID,
			Username: user.Username,
		},
	})
}
