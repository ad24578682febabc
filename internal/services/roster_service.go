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

type rosterService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.BusinessValidator
	events    NotificationEventService
}

func NewRosterService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.BusinessValidator, events NotificationEventService) RosterService {
	return &rosterService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		events:    events,
	}
}

// Enroll pulls the user's identity from Casdoor and adds them to the local
// roster, enforcing the member cap inside one transaction.
func (s *rosterService) Enroll(ctx context.Context, req *EnrollRequest, adminID string) (*RosterMemberResponse, error) {
	s.logger.Info("Enrolling student", "user_id", req.UserID, "admin_id", adminID)

	if err := s.requireAdmin(ctx, adminID, "roster", "enroll"); err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	identity, err := s.repo.User().GetByID(ctx, req.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var member *models.User
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		enrolled, err := txRepo.Roster().IsMember(ctx, nil, req.UserID)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if enrolled {
			return ErrAlreadyEnrolled
		}

		stats, err := txRepo.Roster().GetStats(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to get roster stats: %w", err)
		}
		if errs := s.validator.ValidateEnrollment(stats.MemberCount, stats.MaxMembers); len(errs) > 0 {
			return ErrRosterFull
		}

		member = &models.User{
			ID:        identity.ID,
			Username:  identity.Username,
			FullName:  identity.FullName,
			Email:     identity.Email,
			AvatarURL: identity.AvatarURL,
		}
		return txRepo.Roster().AddMember(ctx, nil, member)
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishStudentEnrolled(ctx, member); err != nil {
		s.logger.Warn("Failed to publish enrollment event", "error", err)
	}

	s.logger.Info("Student enrolled", "user_id", member.ID, "username", member.Username)
	return &RosterMemberResponse{User: member}, nil
}

func (s *rosterService) Remove(ctx context.Context, userID string, adminID string) error {
	s.logger.Info("Removing roster member", "user_id", userID, "admin_id", adminID)

	if err := s.requireAdmin(ctx, adminID, "roster", "remove"); err != nil {
		return err
	}

	enrolled, err := s.repo.Roster().IsMember(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !enrolled {
		return ErrMemberNotFound
	}

	if err := s.repo.Roster().RemoveMember(ctx, nil, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

func (s *rosterService) List(ctx context.Context, filters repositories.UserFilters, includeProgress bool) (*RosterResponse, error) {
	members, total, err := s.repo.Roster().ListMembers(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	stats, err := s.repo.Roster().GetStats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster stats: %w", err)
	}

	responses := make([]*RosterMemberResponse, 0, len(members))
	for _, member := range members {
		resp := &RosterMemberResponse{User: member}
		if includeProgress {
			progress, err := s.repo.Answer().GetStudentProgress(ctx, nil, member.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to get progress for %s: %w", member.ID, err)
			}
			resp.Progress = progress
		}
		responses = append(responses, resp)
	}

	return &RosterResponse{
		Members: responses,
		Total:   total,
		Stats:   stats,
	}, nil
}

func (s *rosterService) GetStats(ctx context.Context) (*repositories.RosterStats, error) {
	stats, err := s.repo.Roster().GetStats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster stats: %w", err)
	}
	return stats, nil
}

func (s *rosterService) UpdateConfig(ctx context.Context, req *RosterConfigRequest, adminID string) (*models.RosterConfig, error) {
	s.logger.Info("Updating roster config", "max_members", req.MaxMembers, "admin_id", adminID)

	if err := s.requireAdmin(ctx, adminID, "roster", "configure"); err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	config, err := s.repo.Roster().GetConfig(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster config: %w", err)
	}

	// Lowering the cap below current membership is allowed; it only blocks
	// new enrollments.
	config.MaxMembers = req.MaxMembers
	if err := s.repo.Roster().UpdateConfig(ctx, nil, config); err != nil {
		return nil, fmt.Errorf("failed to update roster config: %w", err)
	}

	return config, nil
}

func (s *rosterService) requireAdmin(ctx context.Context, userID, resource, action string) error {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(userID, 0, resource, action, "insufficient role permissions")
	}
	return nil
}
