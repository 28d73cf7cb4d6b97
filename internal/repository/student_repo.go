package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/models"
)

// StudentRepository provides access to student accounts.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByEmailKey(ctx context.Context, emailKey string) (models.Student, error)
	FindOrCreate(ctx context.Context, student models.Student) (models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByEmailKey(ctx context.Context, emailKey string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("email_key = ?", emailKey).First(&student).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) FindOrCreate(ctx context.Context, student models.Student) (models.Student, error) {
	existing, err := r.GetByEmailKey(ctx, student.EmailKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Student{}, err
	}

	if err := r.db.WithContext(ctx).Create(&student).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}
