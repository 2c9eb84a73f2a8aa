package model

import "time"

// CaregiverVisit records a caregiver physically responding. AlertID is set
// when the visit was logged by resolving an SOS alert.
type CaregiverVisit struct {
	ID            string    `json:"id"`
	CaregiverName string    `json:"caregiverName"`
	ElderName     string    `json:"elderName"`
	AlertID       *string   `json:"alertId,omitempty"`
	VisitedAt     time.Time `json:"visitedAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
