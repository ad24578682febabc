package repositories

import (
	"context"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"gorm.io/gorm"
)

// ClassroomRepository manages the single live-classroom row.
type ClassroomRepository interface {
	// Get returns the classroom row, creating the default one on first use.
	Get(ctx context.Context, tx *gorm.DB) (*models.Classroom, error)
	Update(ctx context.Context, tx *gorm.DB, classroom *models.Classroom) error
}

// MeetLinkRepository manages the admin's saved link library.
type MeetLinkRepository interface {
	Create(ctx context.Context, tx *gorm.DB, link *models.MeetLink) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.MeetLink, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*models.MeetLink, error)
	Update(ctx context.Context, tx *gorm.DB, link *models.MeetLink) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

// RosterRepository manages locally enrolled students and the member cap.
type RosterRepository interface {
	// Enrollment
	AddMember(ctx context.Context, tx *gorm.DB, user *models.User) error
	RemoveMember(ctx context.Context, tx *gorm.DB, userID string) error
	GetMember(ctx context.Context, tx *gorm.DB, userID string) (*models.User, error)
	ListMembers(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	CountMembers(ctx context.Context, tx *gorm.DB) (int64, error)
	IsMember(ctx context.Context, tx *gorm.DB, userID string) (bool, error)

	// Cap configuration, single row
	GetConfig(ctx context.Context, tx *gorm.DB) (*models.RosterConfig, error)
	UpdateConfig(ctx context.Context, tx *gorm.DB, config *models.RosterConfig) error
	GetStats(ctx context.Context, tx *gorm.DB) (*RosterStats, error)
}
