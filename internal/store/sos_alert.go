package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/carewatch/internal/model"
	"github.com/google/uuid"
)

type AlertStore struct {
	db  *sql.DB
	now Clock
}

func NewAlertStore(db *sql.DB) *AlertStore {
	return &AlertStore{db: db, now: Now}
}

// SetClock replaces the time source used to stamp records.
func (s *AlertStore) SetClock(c Clock) {
	s.now = c
}

func scanAlert(sc scanner) (*model.SosAlert, error) {
	var a model.SosAlert
	var status string
	var assignedTo sql.NullString

	err := sc.Scan(&a.ID, &a.ElderName, &a.Location, &status, &assignedTo, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Status = model.AlertStatus(status)
	a.AssignedTo = stringPtr(assignedTo)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

const alertCols = `id, elder_name, location, status, assigned_to, created_at, updated_at`

// Create inserts a pending, unassigned alert.
func (s *AlertStore) Create(ctx context.Context, elderName, location string) (*model.SosAlert, error) {
	id := uuid.NewString()
	now := s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sos_alerts (id, elder_name, location, status, assigned_to, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NULL, ?, ?)`,
		id, elderName, location, string(model.AlertPending), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sos alert: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AlertStore) GetByID(ctx context.Context, id string) (*model.SosAlert, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+alertCols+` FROM sos_alerts WHERE id = ?`, id)
	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sos alert: %w", err)
	}
	return a, nil
}

// List returns all alerts, most recent first.
func (s *AlertStore) List(ctx context.Context) ([]model.SosAlert, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+alertCols+` FROM sos_alerts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sos alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// ListPendingBefore returns alerts still pending that were created before t,
// oldest first.
func (s *AlertStore) ListPendingBefore(ctx context.Context, t time.Time) ([]model.SosAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertCols+` FROM sos_alerts WHERE status = ? AND created_at < ? ORDER BY created_at ASC`,
		string(model.AlertPending), t.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending sos alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// Assign moves a pending alert to assigned. It reports false, with no error,
// when no pending alert has that id; the caller decides whether the alert is
// missing or already past pending.
func (s *AlertStore) Assign(ctx context.Context, id, assignedTo string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sos_alerts SET status = ?, assigned_to = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(model.AlertAssigned), assignedTo, s.now().UTC(), id, string(model.AlertPending),
	)
	if err != nil {
		return false, fmt.Errorf("assign sos alert: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// MarkReached moves an assigned alert to reached and logs the caregiver
// visit in the same transaction. The conditional update is the first
// statement so concurrent callers queue on the write lock instead of failing
// to upgrade a read. It returns (nil, nil) when no assigned alert has that id.
func (s *AlertStore) MarkReached(ctx context.Context, id string) (*model.CaregiverVisit, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()
	var elderName string
	var assignedTo sql.NullString
	err = tx.QueryRowContext(ctx,
		`UPDATE sos_alerts SET status = ?, updated_at = ? WHERE id = ? AND status = ?
		 RETURNING elder_name, assigned_to`,
		string(model.AlertReached), now, id, string(model.AlertAssigned),
	).Scan(&elderName, &assignedTo)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mark sos alert reached: %w", err)
	}
	if !assignedTo.Valid || assignedTo.String == "" {
		return nil, fmt.Errorf("alert %s is assigned without a caregiver", id)
	}

	alertID := id
	visit := &model.CaregiverVisit{
		ID:            uuid.NewString(),
		CaregiverName: assignedTo.String,
		ElderName:     elderName,
		AlertID:       &alertID,
		VisitedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := insertVisit(ctx, tx, visit); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mark reached: %w", err)
	}
	return visit, nil
}

// CountCreatedBetween counts alerts with start <= created_at < end.
func (s *AlertStore) CountCreatedBetween(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sos_alerts WHERE created_at >= ? AND created_at < ?`,
		start.UTC(), end.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sos alerts: %w", err)
	}
	return n, nil
}

func scanAlerts(rows *sql.Rows) ([]model.SosAlert, error) {
	var alerts []model.SosAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sos alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}
