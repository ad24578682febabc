package postgres

import (
	"context"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// CountAnswers counts submitted answers for a question
func (h *SharedHelpers) CountAnswers(ctx context.Context, questionID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.StudentAnswer{}).
		Where("question_id = ?", questionID).
		Count(&count).Error
	return count, err
}

// CountAttempts counts started attempts for a question
func (h *SharedHelpers) CountAttempts(ctx context.Context, questionID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.QuestionAttempt{}).
		Where("question_id = ?", questionID).
		Count(&count).Error
	return count, err
}

// ApplyQuestionFilters applies common filters to question queries
func (h *SharedHelpers) ApplyQuestionFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.Topic != nil {
		query = query.Where("topic = ?", *filters.Topic)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyAttemptFilters applies common filters to attempt queries
func (h *SharedHelpers) ApplyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.QuestionID != nil {
		query = query.Where("question_id = ?", *filters.QuestionID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyAnswerFilters applies common filters to answer queries
func (h *SharedHelpers) ApplyAnswerFilters(query *gorm.DB, filters repositories.AnswerFilters) *gorm.DB {
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.QuestionID != nil {
		query = query.Where("question_id = ?", *filters.QuestionID)
	}
	if filters.IsCorrect != nil {
		query = query.Where("is_correct = ?", *filters.IsCorrect)
	}
	if filters.IsExpired != nil {
		query = query.Where("is_expired = ?", *filters.IsExpired)
	}
	if filters.HasFile != nil {
		if *filters.HasFile {
			query = query.Where("file_path IS NOT NULL")
		} else {
			query = query.Where("file_path IS NULL")
		}
	}
	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies limit/offset and a validated sort column.
// Unknown sort columns fall back to created_at to keep ORDER BY injection-safe.
func ApplyPaginationAndSort(query *gorm.DB, limit, offset int, sortBy, sortOrder string, allowed map[string]bool) *gorm.DB {
	if sortBy == "" || !allowed[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
