package models

import "time"

// ArchiveSnapshot is a cold-storage copy of an enrollment: the record and its
// status history serialized to JSON and gzip-compressed. Snapshots are
// immutable once written; RestoredAt marks that a restore used this snapshot.
type ArchiveSnapshot struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	EnrollmentID uint       `gorm:"index;not null" json:"enrollment_id"`
	SummaryKey   string     `gorm:"size:255;index" json:"summary_key"`
	Payload      []byte     `gorm:"not null" json:"-"`
	RawSize      int64      `json:"raw_size"`
	CreatedAt    time.Time  `json:"created_at"`
	RestoredAt   *time.Time `json:"restored_at"`
}
