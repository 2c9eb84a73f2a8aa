// Package summary computes monthly statistics over alerts, vital readings
// and caregiver visits.
package summary

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/store"
)

// MonthWindow returns the half-open interval [start, end) covering the
// calendar month of ref, in ref's location.
func MonthWindow(ref time.Time) (start, end time.Time) {
	y, m, _ := ref.Date()
	start = time.Date(y, m, 1, 0, 0, 0, 0, ref.Location())
	end = start.AddDate(0, 1, 0)
	return start, end
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func formatNumber(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// Build assembles a summary from raw counts and unrounded vital means.
func Build(totalSos int, vitals store.VitalStats, visits int) model.MonthlySummary {
	s := model.MonthlySummary{
		TotalSos:        totalSos,
		AvgBp:           model.NoData,
		CaregiverVisits: visits,
	}
	if vitals.Count > 0 {
		s.AvgBp = formatNumber(round1(vitals.Systolic)) + "/" + formatNumber(round1(vitals.Diastolic))
		s.AvgHr = model.Measure{Value: round1(vitals.HeartRate), Valid: true}
	}
	return s
}

type Service struct {
	alerts *store.AlertStore
	vitals *store.VitalStore
	visits *store.VisitStore
	loc    *time.Location
}

// NewService returns a Service that draws month boundaries in loc. A nil
// loc means time.Local.
func NewService(alerts *store.AlertStore, vitals *store.VitalStore, visits *store.VisitStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{alerts: alerts, vitals: vitals, visits: visits, loc: loc}
}

// Location is the zone month boundaries are drawn in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Monthly summarizes the calendar month containing ref.
func (s *Service) Monthly(ctx context.Context, ref time.Time) (model.MonthlySummary, error) {
	start, end := MonthWindow(ref.In(s.loc))

	total, err := s.alerts.CountCreatedBetween(ctx, start, end)
	if err != nil {
		return model.MonthlySummary{}, err
	}
	stats, err := s.vitals.StatsBetween(ctx, start, end)
	if err != nil {
		return model.MonthlySummary{}, err
	}
	visits, err := s.visits.CountBetween(ctx, start, end)
	if err != nil {
		return model.MonthlySummary{}, err
	}
	return Build(total, stats, visits), nil
}
