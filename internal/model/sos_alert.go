package model

import "time"

// AlertStatus is the lifecycle state of an SOS alert.
type AlertStatus string

const (
	AlertPending  AlertStatus = "pending"
	AlertAssigned AlertStatus = "assigned"
	AlertReached  AlertStatus = "reached"
)

// Valid reports whether s is one of the known lifecycle states.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertPending, AlertAssigned, AlertReached:
		return true
	}
	return false
}

// Rank orders statuses along the forward-only lifecycle.
func (s AlertStatus) Rank() int {
	switch s {
	case AlertPending:
		return 0
	case AlertAssigned:
		return 1
	case AlertReached:
		return 2
	}
	return -1
}

type SosAlert struct {
	ID         string      `json:"id"`
	ElderName  string      `json:"elderName"`
	Location   string      `json:"location"`
	Status     AlertStatus `json:"status"`
	AssignedTo *string     `json:"assignedTo"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}
