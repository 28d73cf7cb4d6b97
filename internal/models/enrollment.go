package models

import (
	"time"

	"gorm.io/datatypes"
)

// Enrollment is the per-student course record. Status, state, and the
// auto-status flag are kept consistent by the status transition rules;
// Categories mirrors the flags carried on the summary projection.
type Enrollment struct {
	ID                   uint    `gorm:"primaryKey" json:"id"`
	StudentID            uint    `gorm:"index:idx_enrollment_student_course,unique;not null" json:"student_id"`
	Student              Student `json:"student,omitempty"`
	CourseID             string  `gorm:"size:64;index:idx_enrollment_student_course,unique;not null" json:"course_id"`
	StatusValue          string  `gorm:"size:64;not null" json:"status_value"`
	ActiveFutureArchived string  `gorm:"size:16;not null;default:'Not Set'" json:"active_future_archived"`
	AutoStatus           bool    `json:"auto_status"`
	AutoStatusValue      string  `gorm:"size:64" json:"auto_status_value"`
	PaymentStatus        string  `gorm:"size:32" json:"payment_status"`
	StudentType          string  `gorm:"size:64" json:"student_type"`
	SchoolYear           string  `gorm:"size:16" json:"school_year"`
	Term                 string  `gorm:"size:32" json:"term"`
	DiplomaMonth         string  `gorm:"size:16" json:"diploma_month"`
	PASI                 bool    `gorm:"column:pasi" json:"pasi"`
	ScheduleStart        *time.Time `json:"schedule_start"`
	ScheduleEnd          *time.Time `json:"schedule_end"`
	ResumingOn           *time.Time `json:"resuming_on"`
	StartingOn           *time.Time `json:"starting_on"`
	FinalizedOn          *time.Time `json:"finalized_on"`
	Categories           datatypes.JSONMap `gorm:"type:json" json:"categories"`
	ArchiveSnapshotID    *string           `gorm:"size:36" json:"archive_snapshot_id"`
	ArchivedAt           *time.Time        `json:"archived_at"`
	LastChange           datatypes.JSONMap `gorm:"type:json" json:"last_change"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// EnrollmentSummary is the denormalized roster projection of an enrollment.
// It exists to serve list reads; every write path that touches an enrollment
// field shown on the roster must update the summary in the same transaction.
type EnrollmentSummary struct {
	Key                  string `gorm:"primaryKey;size:255" json:"key"`
	EnrollmentID         uint   `gorm:"uniqueIndex" json:"enrollment_id"`
	EmailKey             string `gorm:"size:255;index" json:"email_key"`
	StudentEmail         string `gorm:"size:255" json:"student_email"`
	FirstName            string `gorm:"size:128" json:"first_name"`
	LastName             string `gorm:"size:128" json:"last_name"`
	PreferredFirstName   string `gorm:"size:128" json:"preferred_first_name"`
	ASN                  string `gorm:"size:32;index" json:"asn"`
	CourseID             string `gorm:"size:64;index" json:"course_id"`
	StatusValue          string `gorm:"size:64;index" json:"status_value"`
	ActiveFutureArchived string `gorm:"size:16;index" json:"active_future_archived"`
	StudentType          string `gorm:"size:64" json:"student_type"`
	SchoolYear           string `gorm:"size:16" json:"school_year"`
	Term                 string `gorm:"size:32" json:"term"`
	DiplomaMonth         string `gorm:"size:16" json:"diploma_month"`
	PaymentStatus        string `gorm:"size:32" json:"payment_status"`
	PASI                 bool   `gorm:"column:pasi" json:"pasi"`
	Categories           datatypes.JSONMap `gorm:"type:json" json:"categories"`
	ScheduleStart        *time.Time        `json:"schedule_start"`
	ScheduleEnd          *time.Time        `json:"schedule_end"`
	LastUpdated          time.Time         `json:"last_updated"`
	CreatedAt            time.Time         `json:"created_at"`
}
