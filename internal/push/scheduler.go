package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/store"
)

// logRetention is how long push_log rows are kept.
const logRetention = 30 * 24 * time.Hour

// Mailer emails contacts about an escalated alert.
type Mailer interface {
	SendEscalation(ctx context.Context, a model.SosAlert, waiting time.Duration) error
}

// Scheduler escalates alerts that stay pending longer than a threshold by
// notifying a wider set of roles, once per alert. A nil Dispatcher skips
// push delivery.
type Scheduler struct {
	mu            sync.RWMutex
	dispatch      *Dispatcher
	mailer        Mailer
	push          *store.PushStore
	alerts        *store.AlertStore
	logger        *slog.Logger
	escalateAfter time.Duration
	interval      time.Duration
	now           func() time.Time
	lastCleanup   time.Time
	cancel        context.CancelFunc
	done          chan struct{}
}

func NewScheduler(d *Dispatcher, pushStore *store.PushStore, alertStore *store.AlertStore, escalateAfter time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		dispatch:      d,
		push:          pushStore,
		alerts:        alertStore,
		logger:        logger,
		escalateAfter: escalateAfter,
		interval:      30 * time.Second,
		now:           time.Now,
	}
}

// SetMailer adds an email channel for escalations. Call before Start.
func (s *Scheduler) SetMailer(m Mailer) {
	s.mailer = m
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.escalate(ctx)

	now := s.now()
	if now.Sub(s.lastCleanup) >= 24*time.Hour {
		if err := s.push.CleanupSent(ctx, now.Add(-logRetention)); err != nil {
			s.logger.Error("cleanup push log", "error", err)
			return
		}
		s.lastCleanup = now
	}
}

// escalate notifies about every alert pending longer than escalateAfter
// that has not been escalated yet. It returns how many alerts it escalated.
func (s *Scheduler) escalate(ctx context.Context) int {
	cutoff := s.now().Add(-s.escalateAfter)
	pending, err := s.alerts.ListPendingBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("list pending alerts", "error", err)
		return 0
	}

	escalated := 0
	for _, a := range pending {
		fresh, err := s.push.RecordSent(ctx, model.NotifTypeSosEscalated, a.ID)
		if err != nil {
			s.logger.Error("record escalation", "alert", a.ID, "error", err)
			continue
		}
		if !fresh {
			continue
		}

		waiting := s.now().Sub(a.CreatedAt).Round(time.Minute)
		sent := 0
		if s.dispatch != nil {
			sent = s.dispatch.Deliver(ctx, model.NotifTypeSosEscalated, EscalatedRoles, Payload{
				Title: "SOS still unanswered",
				Body:  fmt.Sprintf("%s has been waiting %s at %s", a.ElderName, waiting, a.Location),
				URL:   "/caregiver-dashboard",
				Tag:   "sos-" + a.ID,
			})
		}
		if s.mailer != nil {
			if err := s.mailer.SendEscalation(ctx, a, waiting); err != nil {
				s.logger.Error("email escalation", "alert", a.ID, "error", err)
			}
		}
		s.logger.Warn("sos alert escalated", "alert", a.ID, "waiting", waiting, "delivered", sent)
		escalated++
	}
	return escalated
}
