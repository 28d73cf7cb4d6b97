package dto

import "time"

// ASNIssueResponse is one Alberta Student Number claimed by more than one
// email key, surfaced for manual reconciliation.
type ASNIssueResponse struct {
	ASN           string    `json:"asn"`
	CurrentOwners []string  `json:"current_owners"`
	Emails        []string  `json:"emails"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ASNIssueListResponse wraps the flagged ASN records.
type ASNIssueListResponse struct {
	Items []ASNIssueResponse `json:"items"`
	Total int                `json:"total"`
}
