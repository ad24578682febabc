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

type classroomService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.BusinessValidator
	events    NotificationEventService
}

func NewClassroomService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.BusinessValidator, events NotificationEventService) ClassroomService {
	return &classroomService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		events:    events,
	}
}

func (s *classroomService) Get(ctx context.Context, role models.UserRole) (*ClassroomResponse, error) {
	classroom, err := s.repo.Classroom().Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get classroom: %w", err)
	}

	resp := &ClassroomResponse{Classroom: classroom}

	// The link library is admin-only; students just get the live state
	if role == models.RoleAdmin {
		links, err := s.repo.MeetLink().List(ctx, nil, false)
		if err != nil {
			return nil, fmt.Errorf("failed to list meet links: %w", err)
		}
		resp.MeetLinks = links
	}

	return resp, nil
}

func (s *classroomService) Update(ctx context.Context, req *ClassroomUpdateRequest, userID string) (*ClassroomResponse, error) {
	s.logger.Info("Updating classroom", "user_id", userID)

	if err := s.requireAdmin(ctx, userID, "classroom", "update"); err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	classroom, err := s.repo.Classroom().Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get classroom: %w", err)
	}

	if req.ActiveMeetLink != nil {
		classroom.ActiveMeetLink = req.ActiveMeetLink
	}
	if req.DetectedTitle != nil {
		classroom.DetectedTitle = req.DetectedTitle
	}
	if req.IsLive != nil {
		classroom.IsLive = *req.IsLive
	}

	if err := s.repo.Classroom().Update(ctx, nil, classroom); err != nil {
		return nil, fmt.Errorf("failed to update classroom: %w", err)
	}

	if err := s.events.PublishClassroomChanged(ctx, classroom); err != nil {
		s.logger.Warn("Failed to publish classroom changed event", "error", err)
	}

	return &ClassroomResponse{Classroom: classroom}, nil
}

// ===== LINK LIBRARY =====

func (s *classroomService) CreateMeetLink(ctx context.Context, req *MeetLinkCreateRequest, userID string) (*models.MeetLink, error) {
	if err := s.requireAdmin(ctx, userID, "meet_link", "create"); err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	link := &models.MeetLink{
		Label:    req.Label,
		URL:      req.URL,
		IsActive: true,
	}

	if err := s.repo.MeetLink().Create(ctx, nil, link); err != nil {
		return nil, fmt.Errorf("failed to create meet link: %w", err)
	}

	s.logger.Info("Meet link created", "link_id", link.ID, "label", link.Label)
	return link, nil
}

func (s *classroomService) UpdateMeetLink(ctx context.Context, id uint, req *MeetLinkUpdateRequest, userID string) (*models.MeetLink, error) {
	if err := s.requireAdmin(ctx, userID, "meet_link", "update"); err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	link, err := s.repo.MeetLink().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMeetLinkNotFound
		}
		return nil, fmt.Errorf("failed to get meet link: %w", err)
	}

	if req.Label != nil {
		link.Label = *req.Label
	}
	if req.URL != nil {
		link.URL = *req.URL
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}

	if err := s.repo.MeetLink().Update(ctx, nil, link); err != nil {
		return nil, fmt.Errorf("failed to update meet link: %w", err)
	}

	return link, nil
}

func (s *classroomService) DeleteMeetLink(ctx context.Context, id uint, userID string) error {
	if err := s.requireAdmin(ctx, userID, "meet_link", "delete"); err != nil {
		return err
	}

	if _, err := s.repo.MeetLink().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrMeetLinkNotFound
		}
		return fmt.Errorf("failed to get meet link: %w", err)
	}

	if err := s.repo.MeetLink().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete meet link: %w", err)
	}

	return nil
}

func (s *classroomService) ListMeetLinks(ctx context.Context, activeOnly bool) ([]*models.MeetLink, error) {
	links, err := s.repo.MeetLink().List(ctx, nil, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list meet links: %w", err)
	}
	return links, nil
}

// ActivateMeetLink copies a library entry into the live classroom and marks
// the class live in one transaction.
func (s *classroomService) ActivateMeetLink(ctx context.Context, id uint, userID string) (*ClassroomResponse, error) {
	if err := s.requireAdmin(ctx, userID, "meet_link", "activate"); err != nil {
		return nil, err
	}

	var classroom *models.Classroom
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		link, err := txRepo.MeetLink().GetByID(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrMeetLinkNotFound
			}
			return fmt.Errorf("failed to get meet link: %w", err)
		}

		classroom, err = txRepo.Classroom().Get(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to get classroom: %w", err)
		}

		classroom.ActiveMeetLink = &link.URL
		classroom.DetectedTitle = &link.Label
		classroom.IsLive = true

		return txRepo.Classroom().Update(ctx, nil, classroom)
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishClassroomChanged(ctx, classroom); err != nil {
		s.logger.Warn("Failed to publish classroom changed event", "error", err)
	}

	s.logger.Info("Meet link activated", "link_id", id, "user_id", userID)
	return &ClassroomResponse{Classroom: classroom}, nil
}

func (s *classroomService) requireAdmin(ctx context.Context, userID, resource, action string) error {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(userID, 0, resource, action, "insufficient role permissions")
	}
	return nil
}
