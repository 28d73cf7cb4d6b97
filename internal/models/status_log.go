package models

import (
	"time"

	"gorm.io/datatypes"
)

// StatusLog is an append-only audit entry recording one status change on an
// enrollment. Entries written by a batch operation carry IsMassUpdate plus
// the batch size for traceability.
type StatusLog struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	EnrollmentID   uint   `gorm:"index;not null" json:"enrollment_id"`
	SummaryKey     string `gorm:"size:255;index" json:"summary_key"`
	PreviousStatus string `gorm:"size:64" json:"previous_status"`
	NewStatus      string `gorm:"size:64;not null" json:"new_status"`
	ActorKey       string `gorm:"size:255;not null" json:"actor_key"`
	ActorRole      string `gorm:"size:32" json:"actor_role"`
	AutoStatus     bool   `json:"auto_status"`
	IsMassUpdate   bool   `gorm:"index" json:"is_mass_update"`
	TotalStudents  int    `json:"total_students"`
	Metadata       datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt      time.Time         `json:"created_at"`
}
