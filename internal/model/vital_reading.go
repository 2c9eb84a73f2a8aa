package model

import "time"

// DefaultElderName is used when a reading is submitted without a name.
const DefaultElderName = "Elder"

// VitalReading is a single blood-pressure/heart-rate measurement. Readings
// are append-only.
type VitalReading struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Systolic  float64   `json:"systolic"`
	Diastolic float64   `json:"diastolic"`
	HeartRate float64   `json:"hr"`
	ElderName string    `json:"elderName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
