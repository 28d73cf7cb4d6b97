package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/models"
)

// CategoryRepository persists per-teacher categories.
type CategoryRepository interface {
	ListByTeacher(ctx context.Context, teacherKey string, includeArchived bool) ([]models.Category, error)
	ListAll(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id string, updates map[string]interface{}) (models.Category, error)
	Delete(ctx context.Context, id string) error
	CountByType(ctx context.Context, typeID string) (int64, error)
}

// CategoryTypeRepository persists the shared category type table.
type CategoryTypeRepository interface {
	List(ctx context.Context) ([]models.CategoryType, error)
	GetByID(ctx context.Context, id string) (models.CategoryType, error)
	Create(ctx context.Context, categoryType *models.CategoryType) error
	Update(ctx context.Context, id string, updates map[string]interface{}) (models.CategoryType, error)
	Delete(ctx context.Context, id string) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository constructs the category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) ListByTeacher(ctx context.Context, teacherKey string, includeArchived bool) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Where("teacher_key = ?", teacherKey)
	if !includeArchived {
		query = query.Where("archived = ?", false)
	}

	var categories []models.Category
	if err := query.Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) ListAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("teacher_key, name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return models.Category{}, err
	}
	return category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (models.Category, error) {
	tx := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return models.Category{}, tx.Error
	}
	if tx.RowsAffected == 0 {
		return models.Category{}, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *categoryRepository) CountByType(ctx context.Context, typeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("type_id = ?", typeID).Count(&count).Error
	return count, err
}

type categoryTypeRepository struct {
	db *gorm.DB
}

// NewCategoryTypeRepository constructs the category type repository.
func NewCategoryTypeRepository(db *gorm.DB) CategoryTypeRepository {
	return &categoryTypeRepository{db: db}
}

func (r *categoryTypeRepository) List(ctx context.Context) ([]models.CategoryType, error) {
	var types []models.CategoryType
	if err := r.db.WithContext(ctx).Order("name").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *categoryTypeRepository) GetByID(ctx context.Context, id string) (models.CategoryType, error) {
	var categoryType models.CategoryType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&categoryType).Error; err != nil {
		return models.CategoryType{}, err
	}
	return categoryType, nil
}

func (r *categoryTypeRepository) Create(ctx context.Context, categoryType *models.CategoryType) error {
	return r.db.WithContext(ctx).Create(categoryType).Error
}

func (r *categoryTypeRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (models.CategoryType, error) {
	tx := r.db.WithContext(ctx).Model(&models.CategoryType{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return models.CategoryType{}, tx.Error
	}
	if tx.RowsAffected == 0 {
		return models.CategoryType{}, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *categoryTypeRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CategoryType{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
