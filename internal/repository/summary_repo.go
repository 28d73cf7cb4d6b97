package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/models"
)

// SummaryRepository reads the denormalized roster projection. Filtering and
// classification happen above this layer so that reduced records are never
// dropped by a WHERE clause.
type SummaryRepository interface {
	List(ctx context.Context) ([]models.EnrollmentSummary, error)
	GetByKey(ctx context.Context, key string) (models.EnrollmentSummary, error)
	GetByKeys(ctx context.Context, keys []string) ([]models.EnrollmentSummary, error)
}

type summaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository constructs the summary repository.
func NewSummaryRepository(db *gorm.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) List(ctx context.Context) ([]models.EnrollmentSummary, error) {
	var summaries []models.EnrollmentSummary
	if err := r.db.WithContext(ctx).Order("key").Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *summaryRepository) GetByKey(ctx context.Context, key string) (models.EnrollmentSummary, error) {
	var summary models.EnrollmentSummary
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&summary).Error; err != nil {
		return models.EnrollmentSummary{}, err
	}
	return summary, nil
}

func (r *summaryRepository) GetByKeys(ctx context.Context, keys []string) ([]models.EnrollmentSummary, error) {
	var summaries []models.EnrollmentSummary
	if err := r.db.WithContext(ctx).Where("key IN ?", keys).Order("key").Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}
