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

var questionSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"topic":      true,
}

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return err
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID, question.CreatedBy)
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).First(&dbQuestion, id).Error; err != nil {
			return nil, err
		}
		return &dbQuestion, nil
	})

	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).
		Preload("Attempts").
		Preload("Answers").
		Preload("Answers.Student").
		First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return err
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID, question.CreatedBy)
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Question{}, id).Error; err != nil {
		return err
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, id, "")
	return nil
}

func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	var total int64

	// apply filters first, count before pagination
	query := db.WithContext(ctx).Model(&models.Question{})
	query = q.helpers.ApplyQuestionFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = ApplyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, questionSortColumns)

	if err := query.Preload("Creator").Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (q *QuestionPostgreSQL) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	filters.CreatedBy = &creatorID
	return q.List(ctx, tx, filters)
}

func (q *QuestionPostgreSQL) GetByTopic(ctx context.Context, tx *gorm.DB, topic string, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	filters.Topic = &topic
	return q.List(ctx, tx, filters)
}

func (q *QuestionPostgreSQL) Search(ctx context.Context, tx *gorm.DB, searchQuery string, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	var total int64

	pattern := "%" + searchQuery + "%"
	query := db.WithContext(ctx).Model(&models.Question{}).
		Where("text ILIKE ? OR topic ILIKE ?", pattern, pattern)
	query = q.helpers.ApplyQuestionFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = ApplyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, questionSortColumns)

	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

// GetUnansweredByStudent returns every question the student has not submitted
// an answer for yet, oldest first.
func (q *QuestionPostgreSQL) GetUnansweredByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Question, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	err := db.WithContext(ctx).
		Where("id NOT IN (?)",
			db.WithContext(ctx).Model(&models.StudentAnswer{}).
				Select("question_id").
				Where("student_id = ?", studentID)).
		Order("created_at ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) GetAnsweredByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Question, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	err := db.WithContext(ctx).
		Joins("JOIN student_answers ON student_answers.question_id = questions.id").
		Where("student_answers.student_id = ?", studentID).
		Order("student_answers.submitted_at DESC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) GetQuestionStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.QuestionStats, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("question:%d:stats", id)
	var stats repositories.QuestionStats

	err := q.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var result repositories.QuestionStats

		var attempts int64
		if err := db.WithContext(ctx).Model(&models.QuestionAttempt{}).
			Where("question_id = ?", id).Count(&attempts).Error; err != nil {
			return nil, err
		}
		result.AttemptCount = int(attempts)

		type answerAgg struct {
			Total   int64
			Correct int64
			Expired int64
			Files   int64
		}
		var agg answerAgg
		err := db.WithContext(ctx).Model(&models.StudentAnswer{}).
			Select(
				"COUNT(*) AS total",
				"COUNT(*) FILTER (WHERE is_correct) AS correct",
				"COUNT(*) FILTER (WHERE is_expired) AS expired",
				"COUNT(*) FILTER (WHERE file_path IS NOT NULL) AS files",
			).
			Where("question_id = ?", id).
			Scan(&agg).Error
		if err != nil {
			return nil, err
		}

		result.AnswerCount = int(agg.Total)
		result.CorrectCount = int(agg.Correct)
		result.ExpiredCount = int(agg.Expired)
		result.FileCount = int(agg.Files)
		if agg.Total > 0 {
			result.CorrectRate = float64(agg.Correct) / float64(agg.Total)
		}

		return &result, nil
	})

	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (q *QuestionPostgreSQL) GetOptionBreakdown(ctx context.Context, tx *gorm.DB, id uint) (*repositories.OptionBreakdown, error) {
	db := q.getDB(tx)

	type row struct {
		SelectedOption models.OptionSymbol
		Count          int
	}
	var rows []row
	err := db.WithContext(ctx).Model(&models.StudentAnswer{}).
		Select("selected_option, COUNT(*) AS count").
		Where("question_id = ? AND selected_option IS NOT NULL", id).
		Group("selected_option").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	breakdown := &repositories.OptionBreakdown{
		Counts: make(map[models.OptionSymbol]int),
	}
	for _, r := range rows {
		breakdown.Counts[r.SelectedOption] = r.Count
		breakdown.Total += r.Count
	}
	return breakdown, nil
}

func (q *QuestionPostgreSQL) HasAnswers(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	count, err := q.helpers.CountAnswers(ctx, id)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (q *QuestionPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("question:%d", id)

	var exists bool
	err := q.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &exists, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Question{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		return count > 0, nil
	})

	return exists, err
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
