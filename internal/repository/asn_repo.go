package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rtdacademy/roster-api/internal/models"
)

// ASNRepository persists provincial student number claims.
type ASNRepository interface {
	List(ctx context.Context) ([]models.ASNRecord, error)
	Get(ctx context.Context, asn string) (models.ASNRecord, error)
	Upsert(ctx context.Context, record *models.ASNRecord) error
}

// PASIRepository reads the imported provincial registry rows.
type PASIRepository interface {
	List(ctx context.Context) ([]models.PASIRecord, error)
}

type asnRepository struct {
	db *gorm.DB
}

// NewASNRepository constructs the ASN repository.
func NewASNRepository(db *gorm.DB) ASNRepository {
	return &asnRepository{db: db}
}

func (r *asnRepository) List(ctx context.Context) ([]models.ASNRecord, error) {
	var records []models.ASNRecord
	if err := r.db.WithContext(ctx).Order("asn").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *asnRepository) Get(ctx context.Context, asn string) (models.ASNRecord, error) {
	var record models.ASNRecord
	if err := r.db.WithContext(ctx).Where("asn = ?", asn).First(&record).Error; err != nil {
		return models.ASNRecord{}, err
	}
	return record, nil
}

func (r *asnRepository) Upsert(ctx context.Context, record *models.ASNRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asn"}},
		DoUpdates: clause.AssignmentColumns([]string{"email_keys", "updated_at"}),
	}).Create(record).Error
}

type pasiRepository struct {
	db *gorm.DB
}

// NewPASIRepository constructs the PASI repository.
func NewPASIRepository(db *gorm.DB) PASIRepository {
	return &pasiRepository{db: db}
}

func (r *pasiRepository) List(ctx context.Context) ([]models.PASIRecord, error) {
	var records []models.PASIRecord
	if err := r.db.WithContext(ctx).Order("record_id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
