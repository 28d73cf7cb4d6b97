package dto

import (
	"time"

	"github.com/rtdacademy/roster-api/internal/models"
)

// EnrollmentCreateRequest registers a student into a course.
type EnrollmentCreateRequest struct {
	Email              string `json:"email" validate:"required,email"`
	FirstName          string `json:"first_name" validate:"required,max=128"`
	LastName           string `json:"last_name" validate:"required,max=128"`
	PreferredFirstName string `json:"preferred_first_name" validate:"omitempty,max=128"`
	ASN                string `json:"asn" validate:"omitempty,max=32"`
	CourseID           string `json:"course_id" validate:"required,max=64"`
	StudentType        string `json:"student_type" validate:"omitempty,max=64"`
	SchoolYear         string `json:"school_year" validate:"omitempty,max=16"`
	Term               string `json:"term" validate:"omitempty,max=32"`
	DiplomaMonth       string `json:"diploma_month" validate:"omitempty,max=16"`
	PASI               bool   `json:"pasi"`
}

// PaymentStatusUpdateRequest sets the billing state on an enrollment.
type PaymentStatusUpdateRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,max=32"`
}

// StatusTransitionRequest asks for an enrollment status change. The date
// fields are the secondary data gated transitions require.
type StatusTransitionRequest struct {
	Status      string     `json:"status" validate:"required"`
	ResumingOn  *time.Time `json:"resuming_on,omitempty"`
	StartingOn  *time.Time `json:"starting_on,omitempty"`
	FinalizedOn *time.Time `json:"finalized_on,omitempty"`
}

// StatusTransitionResponse reports the outcome of a transition request.
// Applied is false for informational options, which never write.
type StatusTransitionResponse struct {
	Applied    bool               `json:"applied"`
	Enrollment EnrollmentResponse `json:"enrollment,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// EnrollmentResponse is the API view of an enrollment record.
type EnrollmentResponse struct {
	ID                   uint            `json:"id"`
	StudentID            uint            `json:"student_id"`
	CourseID             string          `json:"course_id"`
	StatusValue          string          `json:"status_value"`
	ActiveFutureArchived string          `json:"active_future_archived"`
	AutoStatus           bool            `json:"auto_status"`
	AutoStatusValue      string          `json:"auto_status_value,omitempty"`
	PaymentStatus        string          `json:"payment_status,omitempty"`
	StudentType          string          `json:"student_type,omitempty"`
	SchoolYear           string          `json:"school_year,omitempty"`
	Term                 string          `json:"term,omitempty"`
	DiplomaMonth         string          `json:"diploma_month,omitempty"`
	PASI                 bool            `json:"pasi"`
	Categories           map[string]bool `json:"categories,omitempty"`
	ResumingOn           *time.Time      `json:"resuming_on,omitempty"`
	StartingOn           *time.Time      `json:"starting_on,omitempty"`
	FinalizedOn          *time.Time      `json:"finalized_on,omitempty"`
	ArchiveSnapshotID    *string         `json:"archive_snapshot_id,omitempty"`
	ArchivedAt           *time.Time      `json:"archived_at,omitempty"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// NewEnrollmentResponse maps a model onto its API view.
func NewEnrollmentResponse(e models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:                   e.ID,
		StudentID:            e.StudentID,
		CourseID:             e.CourseID,
		StatusValue:          e.StatusValue,
		ActiveFutureArchived: e.ActiveFutureArchived,
		AutoStatus:           e.AutoStatus,
		AutoStatusValue:      e.AutoStatusValue,
		PaymentStatus:        e.PaymentStatus,
		StudentType:          e.StudentType,
		SchoolYear:           e.SchoolYear,
		Term:                 e.Term,
		DiplomaMonth:         e.DiplomaMonth,
		PASI:                 e.PASI,
		Categories:           boolMap(e.Categories),
		ResumingOn:           e.ResumingOn,
		StartingOn:           e.StartingOn,
		FinalizedOn:          e.FinalizedOn,
		ArchiveSnapshotID:    e.ArchiveSnapshotID,
		ArchivedAt:           e.ArchivedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

// StatusLogResponse is the API view of one audit entry.
type StatusLogResponse struct {
	ID             uint      `json:"id"`
	EnrollmentID   uint      `json:"enrollment_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ActorKey       string    `json:"actor_key"`
	ActorRole      string    `json:"actor_role,omitempty"`
	AutoStatus     bool      `json:"auto_status"`
	IsMassUpdate   bool      `json:"is_mass_update"`
	TotalStudents  int       `json:"total_students,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewStatusLogResponse maps an audit entry onto its API view.
func NewStatusLogResponse(l models.StatusLog) StatusLogResponse {
	return StatusLogResponse{
		ID:             l.ID,
		EnrollmentID:   l.EnrollmentID,
		PreviousStatus: l.PreviousStatus,
		NewStatus:      l.NewStatus,
		ActorKey:       l.ActorKey,
		ActorRole:      l.ActorRole,
		AutoStatus:     l.AutoStatus,
		IsMassUpdate:   l.IsMassUpdate,
		TotalStudents:  l.TotalStudents,
		CreatedAt:      l.CreatedAt,
	}
}

// ArchiveResponse reports the snapshot created or restored for an enrollment.
type ArchiveResponse struct {
	SnapshotID     string    `json:"snapshot_id"`
	EnrollmentID   uint      `json:"enrollment_id"`
	RawSize        int64     `json:"raw_size"`
	CompressedSize int64     `json:"compressed_size"`
	ArchivedAt     time.Time `json:"archived_at"`
}

func boolMap(raw map[string]interface{}) map[string]bool {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]bool, len(raw))
	for key, value := range raw {
		if flag, ok := value.(bool); ok {
			out[key] = flag
		}
	}
	return out
}
