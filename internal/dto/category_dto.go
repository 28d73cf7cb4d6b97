package dto

import (
	"time"

	"github.com/rtdacademy/roster-api/internal/models"
)

// CategoryCreateRequest adds a new tag to a staff member's category set.
type CategoryCreateRequest struct {
	Name   string  `json:"name" validate:"required,min=1,max=128"`
	Color  string  `json:"color" validate:"omitempty,max=16"`
	Icon   string  `json:"icon" validate:"omitempty,max=64"`
	TypeID *string `json:"type_id,omitempty"`
}

// CategoryUpdateRequest patches an existing category.
type CategoryUpdateRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Color    *string `json:"color,omitempty" validate:"omitempty,max=16"`
	Icon     *string `json:"icon,omitempty" validate:"omitempty,max=64"`
	TypeID   *string `json:"type_id,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
}

// CategoryResponse is the API view of a category.
type CategoryResponse struct {
	ID         string    `json:"id"`
	TeacherKey string    `json:"teacher_key"`
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	Icon       string    `json:"icon,omitempty"`
	TypeID     *string   `json:"type_id,omitempty"`
	Archived   bool      `json:"archived"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewCategoryResponse maps a category model to its API view.
func NewCategoryResponse(c models.Category) CategoryResponse {
	return CategoryResponse{
		ID:         c.ID,
		TeacherKey: c.TeacherKey,
		Name:       c.Name,
		Color:      c.Color,
		Icon:       c.Icon,
		TypeID:     c.TypeID,
		Archived:   c.Archived,
		CreatedAt:  c.CreatedAt,
	}
}

// CategoryTypeCreateRequest adds a shared category type.
type CategoryTypeCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=128"`
	Description string `json:"description" validate:"omitempty,max=512"`
	Icon        string `json:"icon" validate:"omitempty,max=64"`
	Color       string `json:"color" validate:"omitempty,max=16"`
}

// CategoryTypeUpdateRequest patches a category type.
type CategoryTypeUpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=512"`
	Icon        *string `json:"icon,omitempty" validate:"omitempty,max=64"`
	Color       *string `json:"color,omitempty" validate:"omitempty,max=16"`
}

// CategoryTypeResponse is the API view of a category type.
type CategoryTypeResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCategoryTypeResponse maps a category type model to its API view.
func NewCategoryTypeResponse(t models.CategoryType) CategoryTypeResponse {
	return CategoryTypeResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Icon:        t.Icon,
		Color:       t.Color,
		CreatedAt:   t.CreatedAt,
	}
}
