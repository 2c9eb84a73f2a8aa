package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/carewatch/internal/model"
	"github.com/google/uuid"
)

type VisitStore struct {
	db  *sql.DB
	now Clock
}

func NewVisitStore(db *sql.DB) *VisitStore {
	return &VisitStore{db: db, now: Now}
}

// SetClock replaces the time source used to stamp records.
func (s *VisitStore) SetClock(c Clock) {
	s.now = c
}

func scanVisit(sc scanner) (*model.CaregiverVisit, error) {
	var v model.CaregiverVisit
	var alertID sql.NullString
	err := sc.Scan(&v.ID, &v.CaregiverName, &v.ElderName, &alertID, &v.VisitedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.AlertID = stringPtr(alertID)
	v.VisitedAt = v.VisitedAt.UTC()
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return &v, nil
}

const visitCols = `id, caregiver_name, elder_name, alert_id, visited_at, created_at, updated_at`

func insertVisit(ctx context.Context, ex execer, v *model.CaregiverVisit) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO caregiver_visits (id, caregiver_name, elder_name, alert_id, visited_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.CaregiverName, v.ElderName, nullString(v.AlertID), v.VisitedAt.UTC(), v.CreatedAt.UTC(), v.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert caregiver visit: %w", err)
	}
	return nil
}

// Create records a visit that is not tied to an alert. A nil visitedAt
// defaults to the creation time.
func (s *VisitStore) Create(ctx context.Context, caregiverName, elderName string, visitedAt *time.Time) (*model.CaregiverVisit, error) {
	now := s.now().UTC()
	v := &model.CaregiverVisit{
		ID:            uuid.NewString(),
		CaregiverName: caregiverName,
		ElderName:     elderName,
		VisitedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if visitedAt != nil {
		v.VisitedAt = visitedAt.UTC()
	}
	if err := insertVisit(ctx, s.db, v); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, v.ID)
}

func (s *VisitStore) GetByID(ctx context.Context, id string) (*model.CaregiverVisit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+visitCols+` FROM caregiver_visits WHERE id = ?`, id)
	v, err := scanVisit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get caregiver visit: %w", err)
	}
	return v, nil
}

// List returns all visits, most recent first.
func (s *VisitStore) List(ctx context.Context) ([]model.CaregiverVisit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+visitCols+` FROM caregiver_visits ORDER BY visited_at DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list caregiver visits: %w", err)
	}
	defer rows.Close()
	return scanVisits(rows)
}

// ListByAlert returns the visits logged for one alert.
func (s *VisitStore) ListByAlert(ctx context.Context, alertID string) ([]model.CaregiverVisit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+visitCols+` FROM caregiver_visits WHERE alert_id = ? ORDER BY visited_at DESC`, alertID)
	if err != nil {
		return nil, fmt.Errorf("list caregiver visits by alert: %w", err)
	}
	defer rows.Close()
	return scanVisits(rows)
}

// CountBetween counts visits with start <= visited_at < end.
func (s *VisitStore) CountBetween(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM caregiver_visits WHERE visited_at >= ? AND visited_at < ?`,
		start.UTC(), end.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count caregiver visits: %w", err)
	}
	return n, nil
}

func scanVisits(rows *sql.Rows) ([]model.CaregiverVisit, error) {
	var visits []model.CaregiverVisit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan caregiver visit: %w", err)
		}
		visits = append(visits, *v)
	}
	return visits, rows.Err()
}
