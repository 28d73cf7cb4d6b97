package models

import "time"

// Student represents a learner account. EmailKey is the database-safe form of
// the email address and is the stable identifier used in roster keys.
type Student struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Email              string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	EmailKey           string    `gorm:"size:255;uniqueIndex;not null" json:"email_key"`
	FirstName          string    `gorm:"size:128" json:"first_name"`
	LastName           string    `gorm:"size:128" json:"last_name"`
	PreferredFirstName string    `gorm:"size:128" json:"preferred_first_name"`
	ASN                string    `gorm:"size:32;index" json:"asn"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
