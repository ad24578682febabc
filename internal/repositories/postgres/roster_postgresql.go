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

const defaultMaxMembers = 50

type RosterPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewRosterPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.RosterRepository {
	return &RosterPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *RosterPostgreSQL) AddMember(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	cache.SafeDelete(ctx, r.cacheManager.Stats, "roster")
	return nil
}

func (r *RosterPostgreSQL) RemoveMember(ctx context.Context, tx *gorm.DB, userID string) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.User{}, "id = ?", userID).Error; err != nil {
		return err
	}

	cache.SafeDelete(ctx, r.cacheManager.Stats, "roster")
	cache.SafeDelete(ctx, r.cacheManager.User, "id:"+userID)
	return nil
}

func (r *RosterPostgreSQL) GetMember(ctx context.Context, tx *gorm.DB, userID string) (*models.User, error) {
	db := r.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *RosterPostgreSQL) ListMembers(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	db := r.getDB(tx)
	var users []*models.User
	var total int64

	query := db.WithContext(ctx).Model(&models.User{})
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("username ILIKE ? OR full_name ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("username ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *RosterPostgreSQL) CountMembers(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *RosterPostgreSQL) IsMember(ctx context.Context, tx *gorm.DB, userID string) (bool, error) {
	db := r.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetConfig returns the singleton cap row, creating the default on first use.
func (r *RosterPostgreSQL) GetConfig(ctx context.Context, tx *gorm.DB) (*models.RosterConfig, error) {
	db := r.getDB(tx)
	var config models.RosterConfig
	err := db.WithContext(ctx).Order("id ASC").First(&config).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		config = models.RosterConfig{MaxMembers: defaultMaxMembers}
		if err := db.WithContext(ctx).Create(&config).Error; err != nil {
			return nil, err
		}
		return &config, nil
	}
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *RosterPostgreSQL) UpdateConfig(ctx context.Context, tx *gorm.DB, config *models.RosterConfig) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(config).Error; err != nil {
		return err
	}

	cache.SafeDelete(ctx, r.cacheManager.Stats, "roster")
	return nil
}

func (r *RosterPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB) (*repositories.RosterStats, error) {
	var stats repositories.RosterStats

	err := r.cacheManager.Stats.CacheOrExecute(ctx, "roster", &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		count, err := r.CountMembers(ctx, tx)
		if err != nil {
			return nil, err
		}
		config, err := r.GetConfig(ctx, tx)
		if err != nil {
			return nil, err
		}
		return &repositories.RosterStats{
			MemberCount: int(count),
			MaxMembers:  config.MaxMembers,
		}, nil
	})

	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *RosterPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
