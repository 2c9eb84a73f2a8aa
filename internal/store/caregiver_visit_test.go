package store

import (
	"context"
	"testing"
	"time"
)

func TestVisitCreateAndList(t *testing.T) {
	s := NewVisitStore(setupTestDB(t))
	ctx := context.Background()

	early := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	late := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	if _, err := s.Create(ctx, "B", "Asha", &early); err != nil {
		t.Fatalf("create: %v", err)
	}
	v, err := s.Create(ctx, "C", "Asha", &late)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.AlertID != nil {
		t.Errorf("alertId = %v, want nil", *v.AlertID)
	}

	visits, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visits) != 2 {
		t.Fatalf("len = %d, want 2", len(visits))
	}
	if visits[0].CaregiverName != "C" {
		t.Errorf("first caregiver = %q, want C", visits[0].CaregiverName)
	}
}

func TestVisitCreateDefaultsVisitedAt(t *testing.T) {
	s := NewVisitStore(setupTestDB(t))
	now := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	v, err := s.Create(context.Background(), "B", "Asha", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !v.VisitedAt.Equal(now) {
		t.Errorf("visitedAt = %v, want %v", v.VisitedAt, now)
	}
}

func TestVisitCountBetween(t *testing.T) {
	s := NewVisitStore(setupTestDB(t))
	ctx := context.Background()

	for _, at := range []time.Time{
		time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	} {
		at := at
		s.Create(ctx, "B", "Asha", &at)
	}

	n, err := s.CountBetween(ctx,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}
