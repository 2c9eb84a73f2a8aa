package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/carewatch/internal/model"
	"github.com/google/uuid"
)

type VitalStore struct {
	db  *sql.DB
	now Clock
}

func NewVitalStore(db *sql.DB) *VitalStore {
	return &VitalStore{db: db, now: Now}
}

// SetClock replaces the time source used to stamp records.
func (s *VitalStore) SetClock(c Clock) {
	s.now = c
}

func scanVital(sc scanner) (*model.VitalReading, error) {
	var v model.VitalReading
	err := sc.Scan(&v.ID, &v.Timestamp, &v.Systolic, &v.Diastolic, &v.HeartRate, &v.ElderName, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Timestamp = v.Timestamp.UTC()
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return &v, nil
}

const vitalCols = `id, ts, systolic, diastolic, hr, elder_name, created_at, updated_at`

// Create appends a reading. A nil ts defaults to the creation time and an
// empty elderName to model.DefaultElderName.
func (s *VitalStore) Create(ctx context.Context, systolic, diastolic, hr float64, elderName string, ts *time.Time) (*model.VitalReading, error) {
	id := uuid.NewString()
	now := s.now().UTC()
	at := now
	if ts != nil {
		at = ts.UTC()
	}
	if elderName == "" {
		elderName = model.DefaultElderName
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vital_readings (id, ts, systolic, diastolic, hr, elder_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, at, systolic, diastolic, hr, elderName, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert vital reading: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *VitalStore) GetByID(ctx context.Context, id string) (*model.VitalReading, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+vitalCols+` FROM vital_readings WHERE id = ?`, id)
	v, err := scanVital(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vital reading: %w", err)
	}
	return v, nil
}

// List returns the full history, oldest first.
func (s *VitalStore) List(ctx context.Context) ([]model.VitalReading, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+vitalCols+` FROM vital_readings ORDER BY ts ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list vital readings: %w", err)
	}
	defer rows.Close()

	var vitals []model.VitalReading
	for rows.Next() {
		v, err := scanVital(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vital reading: %w", err)
		}
		vitals = append(vitals, *v)
	}
	return vitals, rows.Err()
}

// Latest returns the most recent reading by ts, or nil when there are none.
func (s *VitalStore) Latest(ctx context.Context) (*model.VitalReading, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+vitalCols+` FROM vital_readings ORDER BY ts DESC, created_at DESC, id DESC LIMIT 1`)
	v, err := scanVital(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest vital reading: %w", err)
	}
	return v, nil
}

// VitalStats holds unrounded means over a set of readings. The means are
// only meaningful when Count > 0.
type VitalStats struct {
	Count     int
	Systolic  float64
	Diastolic float64
	HeartRate float64
}

// StatsBetween averages readings with start <= ts < end.
func (s *VitalStore) StatsBetween(ctx context.Context, start, end time.Time) (VitalStats, error) {
	var st VitalStats
	var sys, dia, hr sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(systolic), AVG(diastolic), AVG(hr)
		 FROM vital_readings WHERE ts >= ? AND ts < ?`,
		start.UTC(), end.UTC(),
	).Scan(&st.Count, &sys, &dia, &hr)
	if err != nil {
		return VitalStats{}, fmt.Errorf("average vital readings: %w", err)
	}
	st.Systolic = sys.Float64
	st.Diastolic = dia.Float64
	st.HeartRate = hr.Float64
	return st, nil
}
