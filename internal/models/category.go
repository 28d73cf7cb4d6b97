package models

import "time"

// Category is a roster tag owned by exactly one staff member.
type Category struct {
	ID         string     `gorm:"primaryKey;size:64" json:"id"`
	TeacherKey string     `gorm:"size:255;index;not null" json:"teacher_key"`
	Name       string     `gorm:"size:128;not null" json:"name"`
	Color      string     `gorm:"size:16" json:"color"`
	Icon       string     `gorm:"size:64" json:"icon"`
	TypeID     *string    `gorm:"size:64;index" json:"type_id"`
	Archived   bool       `json:"archived"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CategoryType groups categories across staff members. Types are global and
// cannot be removed while any category references them.
type CategoryType struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Description string    `gorm:"size:512" json:"description"`
	Icon        string    `gorm:"size:64" json:"icon"`
	Color       string    `gorm:"size:16" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
