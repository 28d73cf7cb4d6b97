package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/models"
)

// StatusLogRepository persists the append-only status audit trail.
type StatusLogRepository interface {
	Create(ctx context.Context, entry *models.StatusLog) error
	ListByEnrollment(ctx context.Context, enrollmentID uint) ([]models.StatusLog, error)
	CountMassUpdates(ctx context.Context, enrollmentID uint) (int64, error)
}

type statusLogRepository struct {
	db *gorm.DB
}

// NewStatusLogRepository constructs the status log repository.
func NewStatusLogRepository(db *gorm.DB) StatusLogRepository {
	return &statusLogRepository{db: db}
}

func (r *statusLogRepository) Create(ctx context.Context, entry *models.StatusLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *statusLogRepository) ListByEnrollment(ctx context.Context, enrollmentID uint) ([]models.StatusLog, error) {
	var entries []models.StatusLog
	err := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *statusLogRepository) CountMassUpdates(ctx context.Context, enrollmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StatusLog{}).
		Where("enrollment_id = ? AND is_mass_update = ?", enrollmentID, true).
		Count(&count).Error
	return count, err
}
