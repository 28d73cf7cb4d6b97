package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/models"
)

// ConnectPostgres opens the roster database. The roster read path leans on
// the summary projection, so the pool is sized for many short-lived reads.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates the schema for every roster model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Student{},
		&models.Enrollment{},
		&models.EnrollmentSummary{},
		&models.Category{},
		&models.CategoryType{},
		&models.StatusLog{},
		&models.ASNRecord{},
		&models.PASIRecord{},
		&models.ArchiveSnapshot{},
		&models.QuizQuestion{},
		&models.LessonProgress{},
	)
}
