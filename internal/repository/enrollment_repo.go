package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/internal/utils"
)

// EnrollmentRepository provides access to enrollment records and the write
// paths that keep the summary projection in step with them.
type EnrollmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Enrollment, error)
	GetWithStudent(ctx context.Context, id uint) (models.Enrollment, error)
	CreateWithSummary(ctx context.Context, enrollment *models.Enrollment, student models.Student) error
	// Transition runs a read-modify-write cycle on one enrollment inside a
	// transaction and syncs the summary row before committing. The mutate
	// callback sees the current row; returning an error rolls everything back.
	Transition(ctx context.Context, id uint, mutate func(*models.Enrollment) error) (models.Enrollment, error)
	// StampLastChange records the audit stamp outside any transaction.
	StampLastChange(ctx context.Context, id uint, stamp map[string]interface{}) error
	// SetCategoryFlag writes the flag into the enrollment record and the
	// summary row in one transaction.
	SetCategoryFlag(ctx context.Context, id uint, flagKey string, enabled bool, now time.Time) error
	// ClearCategoryFlag removes a category flag from every enrollment and
	// summary row that carries it.
	ClearCategoryFlag(ctx context.Context, flagKey string, now time.Time) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs the enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) GetWithStudent(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).Preload("Student").First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) CreateWithSummary(ctx context.Context, enrollment *models.Enrollment, student models.Student) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}

		summary := summaryFromEnrollment(*enrollment, student)
		return tx.Create(&summary).Error
	})
}

func (r *enrollmentRepository) Transition(ctx context.Context, id uint, mutate func(*models.Enrollment) error) (models.Enrollment, error) {
	var result models.Enrollment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment models.Enrollment
		if err := tx.First(&enrollment, id).Error; err != nil {
			return err
		}

		if err := mutate(&enrollment); err != nil {
			return err
		}

		if err := tx.Save(&enrollment).Error; err != nil {
			return err
		}

		if err := syncSummary(tx, enrollment); err != nil {
			return err
		}

		result = enrollment
		return nil
	})
	if err != nil {
		return models.Enrollment{}, err
	}
	return result, nil
}

func (r *enrollmentRepository) StampLastChange(ctx context.Context, id uint, stamp map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ?", id).
		UpdateColumn("last_change", datatypes.JSONMap(stamp)).Error
}

func (r *enrollmentRepository) SetCategoryFlag(ctx context.Context, id uint, flagKey string, enabled bool, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment models.Enrollment
		if err := tx.First(&enrollment, id).Error; err != nil {
			return err
		}

		if enrollment.Categories == nil {
			enrollment.Categories = datatypes.JSONMap{}
		}
		enrollment.Categories[flagKey] = enabled

		if err := tx.Model(&models.Enrollment{}).Where("id = ?", id).
			UpdateColumn("categories", enrollment.Categories).Error; err != nil {
			return err
		}

		var summary models.EnrollmentSummary
		if err := tx.Where("enrollment_id = ?", id).First(&summary).Error; err != nil {
			return err
		}
		if summary.Categories == nil {
			summary.Categories = datatypes.JSONMap{}
		}
		summary.Categories[flagKey] = enabled

		return tx.Model(&models.EnrollmentSummary{}).Where("enrollment_id = ?", id).
			UpdateColumns(map[string]interface{}{
				"categories":   summary.Categories,
				"last_updated": now,
			}).Error
	})
}

func (r *enrollmentRepository) ClearCategoryFlag(ctx context.Context, flagKey string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollments []models.Enrollment
		if err := tx.Find(&enrollments).Error; err != nil {
			return err
		}
		for i := range enrollments {
			if enrollments[i].Categories == nil {
				continue
			}
			if _, present := enrollments[i].Categories[flagKey]; !present {
				continue
			}
			delete(enrollments[i].Categories, flagKey)
			if err := tx.Model(&models.Enrollment{}).Where("id = ?", enrollments[i].ID).
				UpdateColumn("categories", enrollments[i].Categories).Error; err != nil {
				return err
			}
		}

		var summaries []models.EnrollmentSummary
		if err := tx.Find(&summaries).Error; err != nil {
			return err
		}
		for i := range summaries {
			if summaries[i].Categories == nil {
				continue
			}
			if _, present := summaries[i].Categories[flagKey]; !present {
				continue
			}
			delete(summaries[i].Categories, flagKey)
			if err := tx.Model(&models.EnrollmentSummary{}).Where("key = ?", summaries[i].Key).
				UpdateColumns(map[string]interface{}{
					"categories":   summaries[i].Categories,
					"last_updated": now,
				}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// summaryFromEnrollment builds the denormalized roster row for an enrollment.
func summaryFromEnrollment(e models.Enrollment, s models.Student) models.EnrollmentSummary {
	return models.EnrollmentSummary{
		Key:                  utils.SummaryKey(s.EmailKey, e.CourseID),
		EnrollmentID:         e.ID,
		EmailKey:             s.EmailKey,
		StudentEmail:         s.Email,
		FirstName:            s.FirstName,
		LastName:             s.LastName,
		PreferredFirstName:   s.PreferredFirstName,
		ASN:                  s.ASN,
		CourseID:             e.CourseID,
		StatusValue:          e.StatusValue,
		ActiveFutureArchived: e.ActiveFutureArchived,
		StudentType:          e.StudentType,
		SchoolYear:           e.SchoolYear,
		Term:                 e.Term,
		DiplomaMonth:         e.DiplomaMonth,
		PaymentStatus:        e.PaymentStatus,
		PASI:                 e.PASI,
		Categories:           e.Categories,
		ScheduleStart:        e.ScheduleStart,
		ScheduleEnd:          e.ScheduleEnd,
		LastUpdated:          time.Now().UTC(),
	}
}

// syncSummary copies the roster-visible enrollment fields onto its summary
// row. Summary rows are created alongside enrollments, so a missing row is
// reported rather than repaired.
func syncSummary(tx *gorm.DB, e models.Enrollment) error {
	return tx.Model(&models.EnrollmentSummary{}).
		Where("enrollment_id = ?", e.ID).
		UpdateColumns(map[string]interface{}{
			"status_value":           e.StatusValue,
			"active_future_archived": e.ActiveFutureArchived,
			"student_type":           e.StudentType,
			"school_year":            e.SchoolYear,
			"term":                   e.Term,
			"diploma_month":          e.DiplomaMonth,
			"payment_status":         e.PaymentStatus,
			"pasi":                   e.PASI,
			"schedule_start":         e.ScheduleStart,
			"schedule_end":           e.ScheduleEnd,
			"last_updated":           time.Now().UTC(),
		}).Error
}
