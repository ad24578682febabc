package postgres

import (
	"context"
	"errors"

	"github.com/aptitude-pro/quiz-service/internal/cache"
	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ClassroomPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewClassroomPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ClassroomRepository {
	return &ClassroomPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Get returns the singleton classroom row, creating it on first use.
func (c *ClassroomPostgreSQL) Get(ctx context.Context, tx *gorm.DB) (*models.Classroom, error) {
	db := c.getDB(tx)
	var classroom models.Classroom
	err := db.WithContext(ctx).Order("id ASC").First(&classroom).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		classroom = models.Classroom{IsLive: false}
		if err := db.WithContext(ctx).Create(&classroom).Error; err != nil {
			return nil, err
		}
		return &classroom, nil
	}
	if err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (c *ClassroomPostgreSQL) Update(ctx context.Context, tx *gorm.DB, classroom *models.Classroom) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Save(classroom).Error; err != nil {
		return err
	}

	cache.InvalidateClassroomCache(ctx, c.cacheManager)
	return nil
}

func (c *ClassroomPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

type MeetLinkPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewMeetLinkPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.MeetLinkRepository {
	return &MeetLinkPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (m *MeetLinkPostgreSQL) Create(ctx context.Context, tx *gorm.DB, link *models.MeetLink) error {
	db := m.getDB(tx)
	if err := db.WithContext(ctx).Create(link).Error; err != nil {
		return err
	}

	cache.InvalidateClassroomCache(ctx, m.cacheManager)
	return nil
}

func (m *MeetLinkPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.MeetLink, error) {
	db := m.getDB(tx)
	var link models.MeetLink
	if err := db.WithContext(ctx).First(&link, id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (m *MeetLinkPostgreSQL) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*models.MeetLink, error) {
	db := m.getDB(tx)
	var links []*models.MeetLink

	query := db.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (m *MeetLinkPostgreSQL) Update(ctx context.Context, tx *gorm.DB, link *models.MeetLink) error {
	db := m.getDB(tx)
	if err := db.WithContext(ctx).Save(link).Error; err != nil {
		return err
	}

	cache.InvalidateClassroomCache(ctx, m.cacheManager)
	return nil
}

func (m *MeetLinkPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := m.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.MeetLink{}, id).Error; err != nil {
		return err
	}

	cache.InvalidateClassroomCache(ctx, m.cacheManager)
	return nil
}

func (m *MeetLinkPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return m.db
}
