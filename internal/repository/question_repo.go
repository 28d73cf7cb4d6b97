package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/models"
)

// QuestionRepository serves the pre-authored question bank.
type QuestionRepository interface {
	GetBySlug(ctx context.Context, slug string) (models.QuizQuestion, error)
	Create(ctx context.Context, question *models.QuizQuestion) error
}

// ProgressRepository persists per-lesson quiz progress.
type ProgressRepository interface {
	Get(ctx context.Context, studentKey, lessonID string) (models.LessonProgress, error)
	Save(ctx context.Context, progress *models.LessonProgress) error
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository constructs the question bank repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) GetBySlug(ctx context.Context, slug string) (models.QuizQuestion, error) {
	var question models.QuizQuestion
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&question).Error; err != nil {
		return models.QuizQuestion{}, err
	}
	return question, nil
}

func (r *questionRepository) Create(ctx context.Context, question *models.QuizQuestion) error {
	return r.db.WithContext(ctx).Create(question).Error
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository constructs the lesson progress repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Get(ctx context.Context, studentKey, lessonID string) (models.LessonProgress, error) {
	var progress models.LessonProgress
	err := r.db.WithContext(ctx).
		Where("student_key = ? AND lesson_id = ?", studentKey, lessonID).
		First(&progress).Error
	if err != nil {
		return models.LessonProgress{}, err
	}
	return progress, nil
}

func (r *progressRepository) Save(ctx context.Context, progress *models.LessonProgress) error {
	return r.db.WithContext(ctx).Save(progress).Error
}
