// Package alert implements the SOS alert lifecycle. An alert only moves
// forward: pending, then assigned, then reached. Reaching an alert logs the
// caregiver visit in the same transaction.
package alert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/carewatch/internal/apperr"
	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/store"
	"github.com/dukerupert/carewatch/internal/validate"
)

type Event string

const (
	EventCreated  Event = "created"
	EventAssigned Event = "assigned"
	EventReached  Event = "reached"
)

// Change describes a committed lifecycle transition. Visit is set only for
// EventReached.
type Change struct {
	Event Event
	Alert *model.SosAlert
	Visit *model.CaregiverVisit
}

// Observer is told about every committed change. Observers run on the
// request goroutine and must not block.
type Observer interface {
	AlertChanged(ctx context.Context, c Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, c Change)

func (f ObserverFunc) AlertChanged(ctx context.Context, c Change) { f(ctx, c) }

type Service struct {
	store     *store.AlertStore
	logger    *slog.Logger
	observers []Observer
}

func NewService(s *store.AlertStore, logger *slog.Logger, observers ...Observer) *Service {
	return &Service{store: s, logger: logger, observers: observers}
}

// Observe registers o for subsequent changes. It is not safe to call
// concurrently with mutations.
func (s *Service) Observe(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Service) notify(ctx context.Context, c Change) {
	for _, o := range s.observers {
		o.AlertChanged(ctx, c)
	}
}

type CreateInput struct {
	ElderName string `json:"elderName" validate:"required,max=200"`
	Location  string `json:"location" validate:"required,max=500"`
}

// PatchInput is a partial update. Nil fields are absent from the request.
type PatchInput struct {
	Status     *string `json:"status"`
	AssignedTo *string `json:"assignedTo"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*model.SosAlert, error) {
	validate.Trim(&in.ElderName, &in.Location)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	a, err := s.store.Create(ctx, in.ElderName, in.Location)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sos alert created", "id", a.ID, "elder", a.ElderName)
	s.notify(ctx, Change{Event: EventCreated, Alert: a})
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.SosAlert, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("sos alert %s not found", id)
	}
	return a, nil
}

// List returns every alert, newest first. It never returns a nil slice.
func (s *Service) List(ctx context.Context) ([]model.SosAlert, error) {
	alerts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []model.SosAlert{}
	}
	return alerts, nil
}

// Assign hands a pending alert to a caregiver.
func (s *Service) Assign(ctx context.Context, id, assignedTo string) (*model.SosAlert, error) {
	validate.Trim(&assignedTo)
	if assignedTo == "" {
		return nil, apperr.Validation("assignedTo is required")
	}

	ok, err := s.store.Assign(ctx, id, assignedTo)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.rejected(ctx, id, model.AlertAssigned)
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sos alert assigned", "id", a.ID, "assigned_to", assignedTo)
	s.notify(ctx, Change{Event: EventAssigned, Alert: a})
	return a, nil
}

// MarkReached closes an assigned alert and returns it with the visit that
// was logged for it.
func (s *Service) MarkReached(ctx context.Context, id string) (*model.SosAlert, *model.CaregiverVisit, error) {
	visit, err := s.store.MarkReached(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if visit == nil {
		return nil, nil, s.rejected(ctx, id, model.AlertReached)
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("sos alert reached", "id", a.ID, "visit", visit.ID)
	s.notify(ctx, Change{Event: EventReached, Alert: a, Visit: visit})
	return a, visit, nil
}

// Patch dispatches a partial update to the matching transition. A patch
// carrying only assignedTo is an assignment.
func (s *Service) Patch(ctx context.Context, id string, in PatchInput) (*model.SosAlert, error) {
	if in.Status == nil && in.AssignedTo == nil {
		return nil, apperr.Validation("status or assignedTo is required")
	}

	target := model.AlertAssigned
	if in.Status != nil {
		target = model.AlertStatus(*in.Status)
		if !target.Valid() {
			return nil, apperr.Validation("status must be one of: %s, %s, %s", model.AlertPending, model.AlertAssigned, model.AlertReached)
		}
	}

	switch target {
	case model.AlertPending:
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("sos alert cannot move back to pending")
	case model.AlertAssigned:
		if in.AssignedTo == nil {
			return nil, apperr.Validation("assignedTo is required")
		}
		return s.Assign(ctx, id, *in.AssignedTo)
	case model.AlertReached:
		if in.AssignedTo != nil {
			return nil, apperr.Validation("assignedTo can only be set when assigning")
		}
		a, _, err := s.MarkReached(ctx, id)
		return a, err
	}
	return nil, fmt.Errorf("unhandled alert status %q", target)
}

// rejected explains why a conditional transition to want matched no row.
func (s *Service) rejected(ctx context.Context, id string, want model.AlertStatus) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case a.Status == want:
		return apperr.Conflict("sos alert is already %s", a.Status)
	case a.Status.Rank() > want.Rank():
		return apperr.Conflict("sos alert is already %s and cannot move back to %s", a.Status, want)
	}
	return apperr.Conflict("sos alert is %s and must be %s first", a.Status, model.AlertAssigned)
}
