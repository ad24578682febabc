package repositories

import (
	"context"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository interface for question-specific operations
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) // Include attempts, answers
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters QuestionFilters) ([]*models.Question, int64, error)
	GetByTopic(ctx context.Context, tx *gorm.DB, topic string, filters QuestionFilters) ([]*models.Question, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters QuestionFilters) ([]*models.Question, int64, error)

	// Student-facing queries
	GetUnansweredByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Question, error)
	GetAnsweredByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Question, error)

	// Statistics
	GetQuestionStats(ctx context.Context, tx *gorm.DB, id uint) (*QuestionStats, error)
	GetOptionBreakdown(ctx context.Context, tx *gorm.DB, id uint) (*OptionBreakdown, error)

	// Validation and checks
	HasAnswers(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}
