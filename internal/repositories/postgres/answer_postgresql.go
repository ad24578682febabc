package postgres

import (
	"context"
	"fmt"

	"github.com/aptitude-pro/quiz-service/internal/cache"
	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var answerSortColumns = map[string]bool{
	"created_at":   true,
	"submitted_at": true,
}

type AnswerPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAnswerPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create inserts the answer. The unique (student_id, question_id) index
// rejects a second submission; the driver translates that violation to
// gorm.ErrDuplicatedKey for the caller.
func (r *AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(answer).Error; err != nil {
		return err
	}

	cache.InvalidateAnswerCache(ctx, r.cacheManager, answer.StudentID, answer.QuestionID)
	return nil
}

func (r *AnswerPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error) {
	db := r.getDB(tx)
	var answer models.StudentAnswer
	if err := db.WithContext(ctx).Preload("Question").First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *AnswerPostgreSQL) GetByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (*models.StudentAnswer, error) {
	db := r.getDB(tx)
	cacheKey := fmt.Sprintf("pair:%s:%d", studentID, questionID)
	var answer models.StudentAnswer

	err := r.cacheManager.Answer.CacheOrExecute(ctx, cacheKey, &answer, cache.AnswerCacheConfig.TTL, func() (interface{}, error) {
		var dbAnswer models.StudentAnswer
		err := db.WithContext(ctx).
			Where("student_id = ? AND question_id = ?", studentID, questionID).
			First(&dbAnswer).Error
		if err != nil {
			return nil, err
		}
		return &dbAnswer, nil
	})

	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *AnswerPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)

	var answer models.StudentAnswer
	if err := db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(&models.StudentAnswer{}, id).Error; err != nil {
		return err
	}

	cache.InvalidateAnswerCache(ctx, r.cacheManager, answer.StudentID, answer.QuestionID)
	return nil
}

func (r *AnswerPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AnswerFilters) ([]*models.StudentAnswer, int64, error) {
	db := r.getDB(tx)
	var answers []*models.StudentAnswer
	var total int64

	query := db.WithContext(ctx).Model(&models.StudentAnswer{})
	query = r.helpers.ApplyAnswerFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = ApplyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, answerSortColumns)

	if err := query.Preload("Student").Preload("Question").Find(&answers).Error; err != nil {
		return nil, 0, err
	}

	return answers, total, nil
}

func (r *AnswerPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AnswerFilters) ([]*models.StudentAnswer, int64, error) {
	filters.StudentID = &studentID
	return r.List(ctx, tx, filters)
}

func (r *AnswerPostgreSQL) GetByQuestion(ctx context.Context, tx *gorm.DB, questionID uint, filters repositories.AnswerFilters) ([]*models.StudentAnswer, int64, error) {
	filters.QuestionID = &questionID
	return r.List(ctx, tx, filters)
}

func (r *AnswerPostgreSQL) GetStudentProgress(ctx context.Context, tx *gorm.DB, studentID string) (*repositories.StudentProgress, error) {
	db := r.getDB(tx)
	cacheKey := fmt.Sprintf("student:%s:progress", studentID)
	var progress repositories.StudentProgress

	err := r.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &progress, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var result repositories.StudentProgress

		var totalQuestions int64
		if err := db.WithContext(ctx).Model(&models.Question{}).Count(&totalQuestions).Error; err != nil {
			return nil, err
		}
		result.TotalQuestions = int(totalQuestions)

		var started int64
		if err := db.WithContext(ctx).Model(&models.QuestionAttempt{}).
			Where("student_id = ?", studentID).Count(&started).Error; err != nil {
			return nil, err
		}
		result.Started = int(started)

		type answerAgg struct {
			Total   int64
			Correct int64
			Expired int64
		}
		var agg answerAgg
		err := db.WithContext(ctx).Model(&models.StudentAnswer{}).
			Select(
				"COUNT(*) AS total",
				"COUNT(*) FILTER (WHERE is_correct) AS correct",
				"COUNT(*) FILTER (WHERE is_expired) AS expired",
			).
			Where("student_id = ?", studentID).
			Scan(&agg).Error
		if err != nil {
			return nil, err
		}

		result.Answered = int(agg.Total)
		result.Correct = int(agg.Correct)
		result.Expired = int(agg.Expired)

		return &result, nil
	})

	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *AnswerPostgreSQL) ExistsByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (bool, error) {
	db := r.getDB(tx)
	cacheKey := fmt.Sprintf("answer:%s:%d", studentID, questionID)

	var exists bool
	err := r.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &exists, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		err := db.WithContext(ctx).Model(&models.StudentAnswer{}).
			Where("student_id = ? AND question_id = ?", studentID, questionID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		return count > 0, nil
	})

	return exists, err
}

func (r *AnswerPostgreSQL) CountByQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (int64, error) {
	db := r.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.StudentAnswer{}).
		Where("question_id = ?", questionID).
		Count(&count).Error
	return count, err
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
