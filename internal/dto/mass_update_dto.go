package dto

// Mass-update properties a batch may target.
const (
	MassPropertyStatus       = "status"
	MassPropertyState        = "state"
	MassPropertyPASI         = "pasi"
	MassPropertyStudentType  = "studentType"
	MassPropertySchoolYear   = "schoolYear"
	MassPropertyDiplomaMonth = "diplomaMonth"
	MassPropertyTerm         = "term"
	MassPropertyCategories   = "categories"
)

// MassCategoryRef identifies the category a batch toggles.
type MassCategoryRef struct {
	TeacherKey string `json:"teacher_key" validate:"required"`
	CategoryID string `json:"category_id" validate:"required"`
}

// MassUpdateRequest applies one property change across every selected
// summary key. For property "categories" the Category/Enabled pair is used
// instead of Value.
type MassUpdateRequest struct {
	Keys     []string         `json:"keys" validate:"required,min=1"`
	Property string           `json:"property" validate:"required"`
	Value    string           `json:"value,omitempty"`
	Category *MassCategoryRef `json:"category,omitempty"`
	Enabled  bool             `json:"enabled,omitempty"`
}

// MassUpdateResponse reports the all-or-nothing outcome of a batch.
type MassUpdateResponse struct {
	Updated  int    `json:"updated"`
	Property string `json:"property"`
}
