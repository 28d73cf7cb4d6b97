package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/models"
)

// BatchChange mutates one enrollment/summary pair inside a batch. Returning
// a StatusLog queues an audit row in the same transaction; returning an
// error aborts the whole batch.
type BatchChange func(enrollment *models.Enrollment, summary *models.EnrollmentSummary) (*models.StatusLog, error)

// MassUpdateRepository applies one change across many records in a single
// transaction. The batch either fully applies or fully fails; individual
// records are not protected against concurrent writers (last writer wins).
type MassUpdateRepository interface {
	ApplyBatch(ctx context.Context, keys []string, change BatchChange) (int, error)
}

type massUpdateRepository struct {
	db *gorm.DB
}

// NewMassUpdateRepository constructs the batch update repository.
func NewMassUpdateRepository(db *gorm.DB) MassUpdateRepository {
	return &massUpdateRepository{db: db}
}

func (r *massUpdateRepository) ApplyBatch(ctx context.Context, keys []string, change BatchChange) (int, error) {
	updated := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range keys {
			var summary models.EnrollmentSummary
			if err := tx.Where("key = ?", key).First(&summary).Error; err != nil {
				return fmt.Errorf("summary %q: %w", key, err)
			}

			var enrollment models.Enrollment
			if err := tx.First(&enrollment, summary.EnrollmentID).Error; err != nil {
				return fmt.Errorf("enrollment for %q: %w", key, err)
			}

			entry, err := change(&enrollment, &summary)
			if err != nil {
				return err
			}

			summary.LastUpdated = time.Now().UTC()
			if err := tx.Save(&enrollment).Error; err != nil {
				return err
			}
			if err := tx.Save(&summary).Error; err != nil {
				return err
			}
			if entry != nil {
				if err := tx.Create(entry).Error; err != nil {
					return err
				}
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
