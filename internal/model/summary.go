package model

import (
	"encoding/json"
	"strconv"
)

// NoData is reported in place of an average when the month has no readings.
const NoData = "—"

// Measure is an optional number that marshals to NoData when absent.
type Measure struct {
	Value float64
	Valid bool
}

func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return json.Marshal(NoData)
	}
	return []byte(strconv.FormatFloat(m.Value, 'f', -1, 64)), nil
}

func (m Measure) String() string {
	if !m.Valid {
		return NoData
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// MonthlySummary is computed on request and never persisted.
type MonthlySummary struct {
	TotalSos        int     `json:"totalSos"`
	AvgBp           string  `json:"avgBp"`
	AvgHr           Measure `json:"avgHr"`
	CaregiverVisits int     `json:"caregiverVisits"`
}
