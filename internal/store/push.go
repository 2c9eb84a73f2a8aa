package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/carewatch/internal/model"
)

type PushStore struct {
	db  *sql.DB
	now Clock
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db, now: Now}
}

const subscriptionCols = `id, endpoint, p256dh_key, auth_key, role, created_at`

func scanSubscription(sc scanner) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	var role string
	if err := sc.Scan(&sub.ID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &role, &sub.CreatedAt); err != nil {
		return nil, err
	}
	sub.Role = model.Role(role)
	sub.CreatedAt = sub.CreatedAt.UTC()
	return &sub, nil
}

// CreateSubscription registers a browser endpoint for a role. Registering an
// endpoint again replaces its keys and role.
func (s *PushStore) CreateSubscription(ctx context.Context, endpoint, p256dh, auth string, role model.Role) (*model.PushSubscription, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (endpoint, p256dh_key, auth_key, role, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key, role = excluded.role`,
		endpoint, p256dh, auth, string(role), s.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	// LastInsertId is not reliable on the upsert path; re-query by endpoint
	return s.getByEndpoint(ctx, endpoint)
}

func (s *PushStore) GetByID(ctx context.Context, id int64) (*model.PushSubscription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subscriptionCols+` FROM push_subscriptions WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return sub, nil
}

func (s *PushStore) getByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subscriptionCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return sub, nil
}

// ListByRoles returns subscriptions registered for any of roles.
func (s *PushStore) ListByRoles(ctx context.Context, roles ...model.Role) ([]model.PushSubscription, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	args := make([]any, len(roles))
	for i, r := range roles {
		args[i] = string(r)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(roles)), ", ")

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionCols+` FROM push_subscriptions WHERE role IN (`+placeholders+`) ORDER BY id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions by role: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// DeleteSubscription reports whether a subscription with that id existed.
func (s *PushStore) DeleteSubscription(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete push subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *PushStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}

// RecordSent marks a notification as delivered so it is not repeated.
// It reports false when the notification had already been recorded.
func (s *PushStore) RecordSent(ctx context.Context, notifType, refID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO push_log (notification_type, reference_id, sent_at) VALUES (?, ?, ?)`,
		notifType, refID, s.now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("record sent notification: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *PushStore) WasSent(ctx context.Context, notifType, refID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM push_log WHERE notification_type = ? AND reference_id = ?`,
		notifType, refID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check sent notification: %w", err)
	}
	return count > 0, nil
}

// CleanupSent deletes push_log rows older than before.
func (s *PushStore) CleanupSent(ctx context.Context, before time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM push_log WHERE sent_at < ?`, before.UTC())
	if err != nil {
		return fmt.Errorf("cleanup sent notifications: %w", err)
	}
	return nil
}
