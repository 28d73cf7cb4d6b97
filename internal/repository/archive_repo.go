package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/models"
)

// ArchiveRepository persists cold-storage snapshots.
type ArchiveRepository interface {
	Create(ctx context.Context, snapshot *models.ArchiveSnapshot) error
	GetByID(ctx context.Context, id string) (models.ArchiveSnapshot, error)
	Latest(ctx context.Context, enrollmentID uint) (models.ArchiveSnapshot, error)
	MarkRestored(ctx context.Context, id string, at time.Time) error
}

type archiveRepository struct {
	db *gorm.DB
}

// NewArchiveRepository constructs the archive repository.
func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

func (r *archiveRepository) Create(ctx context.Context, snapshot *models.ArchiveSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *archiveRepository) GetByID(ctx context.Context, id string) (models.ArchiveSnapshot, error) {
	var snapshot models.ArchiveSnapshot
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&snapshot).Error; err != nil {
		return models.ArchiveSnapshot{}, err
	}
	return snapshot, nil
}

func (r *archiveRepository) Latest(ctx context.Context, enrollmentID uint) (models.ArchiveSnapshot, error) {
	var snapshot models.ArchiveSnapshot
	err := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("created_at DESC, id DESC").
		First(&snapshot).Error
	if err != nil {
		return models.ArchiveSnapshot{}, err
	}
	return snapshot, nil
}

func (r *archiveRepository) MarkRestored(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ArchiveSnapshot{}).
		Where("id = ?", id).
		UpdateColumn("restored_at", at).Error
}
