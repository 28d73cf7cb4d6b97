package dto

import "time"

// Roster record kinds.
const (
	RecordKindLinked      = "linked"
	RecordKindSummaryOnly = "summaryOnly"
	RecordKindPASIOnly    = "pasiOnly"
)

// RosterRecord is one row of the roster view. Every stored record surfaces
// here exactly once; reduced records are classified pasiOnly rather than
// dropped.
type RosterRecord struct {
	Key                  string            `json:"key"`
	RecordType           string            `json:"record_type"`
	EnrollmentID         uint              `json:"enrollment_id,omitempty"`
	EmailKey             string            `json:"email_key,omitempty"`
	StudentEmail         string            `json:"student_email,omitempty"`
	FirstName            string            `json:"first_name,omitempty"`
	LastName             string            `json:"last_name,omitempty"`
	PreferredFirstName   string            `json:"preferred_first_name,omitempty"`
	PASIName             string            `json:"pasi_name,omitempty"`
	ASN                  string            `json:"asn,omitempty"`
	ASNIssue             bool              `json:"asn_issue"`
	CourseID             string            `json:"course_id,omitempty"`
	StatusValue          string            `json:"status_value,omitempty"`
	ActiveFutureArchived string            `json:"active_future_archived,omitempty"`
	StudentType          string            `json:"student_type,omitempty"`
	SchoolYear           string            `json:"school_year,omitempty"`
	Term                 string            `json:"term,omitempty"`
	DiplomaMonth         string            `json:"diploma_month,omitempty"`
	PaymentStatus        string            `json:"payment_status,omitempty"`
	PASI                 bool              `json:"pasi"`
	Categories           map[string]bool   `json:"categories,omitempty"`
	HasSchedule          bool              `json:"has_schedule"`
	ScheduleStart        *time.Time        `json:"schedule_start,omitempty"`
	ScheduleEnd          *time.Time        `json:"schedule_end,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
}

// RosterListResponse wraps a filtered roster view.
type RosterListResponse struct {
	Items []RosterRecord `json:"items"`
	Total int            `json:"total"`
}

// SelectionResolveResponse lists the keys of the currently filtered view,
// i.e. what "select all" resolves to for that filter set.
type SelectionResolveResponse struct {
	Keys  []string `json:"keys"`
	Total int      `json:"total"`
}

// RosterStatsResponse aggregates roster counts for the dashboard strip.
type RosterStatsResponse struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	ByState     map[string]int `json:"by_state"`
	ASNIssues   int            `json:"asn_issues"`
	PASIOnly    int            `json:"pasi_only"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// ExportRequest selects records and orders columns for a CSV export.
type ExportRequest struct {
	Keys    []string `json:"keys" validate:"required,min=1"`
	Columns []string `json:"columns" validate:"required,min=1"`
}
