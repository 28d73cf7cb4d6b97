package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuizQuestion is a pre-authored multiple-choice question bank entry,
// addressable by its stable slug (course{N}_{lesson}_{questionId}).
type QuizQuestion struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	Slug              string `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Question          string `gorm:"type:text;not null" json:"question"`
	Options           datatypes.JSONMap `gorm:"type:json;not null" json:"options"` // "A".."D" → option text
	CorrectAnswer     string `gorm:"size:1;not null" json:"correct_answer"`
	Explanation       string `gorm:"type:text" json:"explanation"`
	Category          string `gorm:"size:64" json:"category"`
	Difficulty        string `gorm:"size:32" json:"difficulty"`
	LearningObjective string `gorm:"size:255" json:"learning_objective"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LessonProgress persists a student's quiz progress for one lesson. Answers
// is the serialized form of the quiz.Progress value object.
type LessonProgress struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StudentKey  string `gorm:"size:255;index:idx_progress_student_lesson,unique;not null" json:"student_key"`
	LessonID    string `gorm:"size:128;index:idx_progress_student_lesson,unique;not null" json:"lesson_id"`
	Answers     datatypes.JSONMap `gorm:"type:json" json:"answers"`
	CompletedAt *time.Time        `json:"completed_at"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
