package models

import (
	"time"

	"gorm.io/datatypes"
)

// ASNRecord maps an Alberta Student Number to the email keys that have
// claimed it. EmailKeys holds emailKey → bool where true marks the current
// owner; more than one true entry is the "ASN issue" surfaced for manual
// reconciliation, never prevented here.
type ASNRecord struct {
	ASN       string            `gorm:"primaryKey;size:32" json:"asn"`
	EmailKeys datatypes.JSONMap `gorm:"type:json" json:"email_keys"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// CurrentOwners returns the email keys currently marked as owning the ASN.
func (r ASNRecord) CurrentOwners() []string {
	owners := make([]string, 0, 1)
	for key, value := range r.EmailKeys {
		if claimed, ok := value.(bool); ok && claimed {
			owners = append(owners, key)
		}
	}
	return owners
}

// HasIssue reports whether more than one email key claims this ASN.
func (r ASNRecord) HasIssue() bool {
	return len(r.CurrentOwners()) > 1
}

// PASIRecord is a provincial registry row imported out-of-band. Records with
// no matching local enrollment surface on the roster as pasiOnly entries.
type PASIRecord struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RecordID    string     `gorm:"size:64;uniqueIndex;not null" json:"record_id"`
	ASN         string     `gorm:"size:32;index" json:"asn"`
	StudentName string     `gorm:"size:255" json:"student_name"` // "Last, First Middle"
	CourseCode  string     `gorm:"size:32" json:"course_code"`
	Term        string     `gorm:"size:32" json:"term"`
	SchoolYear  string     `gorm:"size:16" json:"school_year"`
	Status      string     `gorm:"size:32" json:"status"`
	ExitDate    *time.Time `json:"exit_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
