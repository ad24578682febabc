package postgres

import (
	"context"
	"fmt"

	"github.com/aptitude-pro/quiz-service/internal/cache"
	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var attemptSortColumns = map[string]bool{
	"created_at": true,
	"started_at": true,
}

type AttemptPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAttemptPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// GetOrCreate inserts the attempt with ON CONFLICT DO NOTHING on the
// (student_id, question_id) unique index and reads the row back. Two
// concurrent starts both land on the row the first insert produced, so
// StartedAt never moves.
func (a *AttemptPostgreSQL) GetOrCreate(ctx context.Context, tx *gorm.DB, attempt *models.QuestionAttempt) (*models.QuestionAttempt, error) {
	db := a.getDB(tx)

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "question_id"}},
			DoNothing: true,
		}).
		Create(attempt).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	// Read back unconditionally; on conflict the insert assigns no ID.
	var stored models.QuestionAttempt
	err = db.WithContext(ctx).
		Where("student_id = ? AND question_id = ?", attempt.StudentID, attempt.QuestionID).
		First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt after insert: %w", err)
	}

	cache.InvalidateAttemptCache(ctx, a.cacheManager, attempt.StudentID, attempt.QuestionID)
	return &stored, nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionAttempt, error) {
	db := a.getDB(tx)
	var attempt models.QuestionAttempt
	if err := db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (*models.QuestionAttempt, error) {
	db := a.getDB(tx)
	cacheKey := fmt.Sprintf("pair:%s:%d", studentID, questionID)
	var attempt models.QuestionAttempt

	err := a.cacheManager.Attempt.CacheOrExecute(ctx, cacheKey, &attempt, cache.AttemptCacheConfig.TTL, func() (interface{}, error) {
		var dbAttempt models.QuestionAttempt
		err := db.WithContext(ctx).
			Where("student_id = ? AND question_id = ?", studentID, questionID).
			First(&dbAttempt).Error
		if err != nil {
			return nil, err
		}
		return &dbAttempt, nil
	})

	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.QuestionAttempt, int64, error) {
	db := a.getDB(tx)
	var attempts []*models.QuestionAttempt
	var total int64

	query := db.WithContext(ctx).Model(&models.QuestionAttempt{})
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = ApplyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, attemptSortColumns)

	if err := query.Preload("Student").Preload("Question").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]*models.QuestionAttempt, int64, error) {
	filters.StudentID = &studentID
	return a.List(ctx, tx, filters)
}

func (a *AttemptPostgreSQL) GetByQuestion(ctx context.Context, tx *gorm.DB, questionID uint, filters repositories.AttemptFilters) ([]*models.QuestionAttempt, int64, error) {
	filters.QuestionID = &questionID
	return a.List(ctx, tx, filters)
}

func (a *AttemptPostgreSQL) ExistsByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (bool, error) {
	db := a.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.QuestionAttempt{}).
		Where("student_id = ? AND question_id = ?", studentID, questionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *AttemptPostgreSQL) CountByQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (int64, error) {
	db := a.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.QuestionAttempt{}).
		Where("question_id = ?", questionID).
		Count(&count).Error
	return count, err
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
