package repositories

import (
	"context"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository interface for question attempt tracking.
// An attempt row is write-once; GetOrCreate is the only insert path so a
// concurrent double-start always converges on the first StartedAt.
type AttemptRepository interface {
	// GetOrCreate inserts the attempt unless the (student, question) pair
	// already has one, then returns the stored row either way.
	GetOrCreate(ctx context.Context, tx *gorm.DB, attempt *models.QuestionAttempt) (*models.QuestionAttempt, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionAttempt, error)
	GetByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (*models.QuestionAttempt, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.QuestionAttempt, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters AttemptFilters) ([]*models.QuestionAttempt, int64, error)
	GetByQuestion(ctx context.Context, tx *gorm.DB, questionID uint, filters AttemptFilters) ([]*models.QuestionAttempt, int64, error)

	// Validation and checks
	ExistsByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (bool, error)
	CountByQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (int64, error)
}

// AnswerRepository interface for graded submissions. Create surfaces
// gorm.ErrDuplicatedKey when the pair already answered; callers treat that
// as a conflict, not a failure.
type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error)
	GetByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (*models.StudentAnswer, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AnswerFilters) ([]*models.StudentAnswer, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters AnswerFilters) ([]*models.StudentAnswer, int64, error)
	GetByQuestion(ctx context.Context, tx *gorm.DB, questionID uint, filters AnswerFilters) ([]*models.StudentAnswer, int64, error)

	// Statistics
	GetStudentProgress(ctx context.Context, tx *gorm.DB, studentID string) (*StudentProgress, error)

	// Validation and checks
	ExistsByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (bool, error)
	CountByQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (int64, error)
}
