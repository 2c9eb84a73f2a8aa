package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/dukerupert/carewatch/internal/health"
	"github.com/sethvargo/go-retry"
)

const (
	defaultPingInterval = 10 * time.Second
	defaultBaseDelay    = time.Second
	defaultMaxDelay     = 30 * time.Second
	pingTimeout         = 5 * time.Second
)

// Monitor connects to the database, keeps health state current and
// reconnects with capped exponential backoff after a failure.
type Monitor struct {
	db       *sql.DB
	state    *health.State
	logger   *slog.Logger
	interval time.Duration
	base     time.Duration
	max      time.Duration
	migrated bool
}

func NewMonitor(db *sql.DB, state *health.State, logger *slog.Logger) *Monitor {
	return &Monitor{
		db:       db,
		state:    state,
		logger:   logger,
		interval: defaultPingInterval,
		base:     defaultBaseDelay,
		max:      defaultMaxDelay,
	}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	for {
		if err := m.connect(ctx); err != nil {
			return
		}
		if err := m.watch(ctx); err != nil {
			return
		}
	}
}

// connect retries until the database answers a ping and migrations have
// been applied once. It only fails when ctx is done.
func (m *Monitor) connect(ctx context.Context) error {
	attempt := 0
	backoff := m.backoff()
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := m.ping(ctx); err != nil {
			m.state.SetDown(err)
			m.logger.Warn("database connect failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		if !m.migrated {
			if err := Migrate(ctx, m.db); err != nil {
				m.state.SetDown(err)
				m.logger.Error("database migrate failed", "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			m.migrated = true
		}
		m.state.SetReady()
		m.logger.Info("database connected", "attempts", attempt)
		return nil
	})
}

// watch pings on an interval and returns nil as soon as a ping fails, so
// Run can fall back to connect.
func (m *Monitor) watch(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.ping(ctx); err != nil {
				m.state.SetDown(err)
				m.logger.Error("database disconnected", "error", err)
				return nil
			}
		}
	}
}

func (m *Monitor) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return m.db.PingContext(ctx)
}

func (m *Monitor) backoff() retry.Backoff {
	b := retry.WithCappedDuration(m.max, retry.NewExponential(m.base))
	return retry.BackoffFunc(func() (time.Duration, bool) {
		d, stop := b.Next()
		if !stop {
			m.logger.Info("database reconnect scheduled", "delay", d)
		}
		return d, stop
	})
}
