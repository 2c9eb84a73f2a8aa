// Package risk flags vital readings that cross fixed blood pressure and
// heart rate thresholds.
package risk

import "github.com/dukerupert/carewatch/internal/model"

type Level string

const (
	LevelNoData Level = "no-data"
	LevelHigh   Level = "high-risk"
	LevelNormal Level = "normal"
)

// Thresholds, inclusive.
const (
	SystolicLimit  = 140
	DiastolicLimit = 90
	HeartRateLimit = 100
)

// Evaluate classifies the most recent reading. A nil reading means no data.
func Evaluate(latest *model.VitalReading) Level {
	if latest == nil {
		return LevelNoData
	}
	if latest.Systolic >= SystolicLimit || latest.Diastolic >= DiastolicLimit || latest.HeartRate >= HeartRateLimit {
		return LevelHigh
	}
	return LevelNormal
}

// Assessment pairs a level with the reading it was computed from.
type Assessment struct {
	Level  Level               `json:"level"`
	Latest *model.VitalReading `json:"latest"`
}

func Assess(latest *model.VitalReading) Assessment {
	return Assessment{Level: Evaluate(latest), Latest: latest}
}
