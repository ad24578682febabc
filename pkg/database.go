package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aptitude-pro/quiz-service/internal/config"
	"github.com/aptitude-pro/quiz-service/internal/models"
)

// InitDatabase opens the PostgreSQL connection and runs migrations.
// TranslateError is required so unique-index violations surface as
// gorm.ErrDuplicatedKey instead of driver-specific errors.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogLevel := logger.Warn
	if cfg.Environment == "development" {
		gormLogLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.QuestionAttempt{},
		&models.StudentAnswer{},
		&models.Classroom{},
		&models.MeetLink{},
		&models.RosterConfig{},
	); err != nil {
		return err
	}

	return seedSingletons(db)
}

// seedSingletons ensures the single classroom and roster config rows exist
func seedSingletons(db *gorm.DB) error {
	classroom := models.Classroom{ID: 1}
	if err := db.FirstOrCreate(&classroom, models.Classroom{ID: 1}).Error; err != nil {
		return err
	}

	rosterConfig := models.RosterConfig{ID: 1, MaxMembers: 50}
	return db.FirstOrCreate(&rosterConfig, models.RosterConfig{ID: 1}).Error
}
