package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/carewatch/internal/alert"
	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/store"
)

// SentFunc observes each delivery attempt.
type SentFunc func(notifType string, ok bool)

// Dispatcher fans a payload out to every subscription of the given roles
// and prunes subscriptions the push service reports as gone.
type Dispatcher struct {
	sender Sender
	store  *store.PushStore
	logger *slog.Logger
	onSent SentFunc
}

func NewDispatcher(sender Sender, ps *store.PushStore, logger *slog.Logger, onSent SentFunc) *Dispatcher {
	if onSent == nil {
		onSent = func(string, bool) {}
	}
	return &Dispatcher{sender: sender, store: ps, logger: logger, onSent: onSent}
}

// Deliver returns how many subscriptions accepted the payload.
func (d *Dispatcher) Deliver(ctx context.Context, notifType string, roles []model.Role, payload Payload) int {
	subs, err := d.store.ListByRoles(ctx, roles...)
	if err != nil {
		d.logger.Error("list push subscriptions", "type", notifType, "error", err)
		return 0
	}

	delivered := 0
	for i := range subs {
		sub := &subs[i]
		err := d.sender.Send(ctx, sub, payload)
		d.onSent(notifType, err == nil)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrExpired):
			d.logger.Info("removing expired push subscription", "id", sub.ID)
			if err := d.store.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				d.logger.Error("delete expired push subscription", "id", sub.ID, "error", err)
			}
		default:
			d.logger.Warn("send push", "type", notifType, "subscription", sub.ID, "error", err)
		}
	}
	return delivered
}

// Roles notified about new and escalated alerts.
var (
	CreatedRoles   = []model.Role{model.RoleCaregiver, model.RoleFamily}
	EscalatedRoles = []model.Role{model.RoleCaregiver, model.RoleFamily, model.RoleDoctor}
)

const sendTimeout = 30 * time.Second

// Notifier pushes a notification when an SOS alert is raised. Delivery
// runs in the background so the raising request is not held up.
type Notifier struct {
	dispatch *Dispatcher
	store    *store.PushStore
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewNotifier(d *Dispatcher, ps *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{dispatch: d, store: ps, logger: logger}
}

func (n *Notifier) AlertChanged(_ context.Context, c alert.Change) {
	if c.Event != alert.EventCreated {
		return
	}
	a := *c.Alert

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		fresh, err := n.store.RecordSent(ctx, model.NotifTypeSosCreated, a.ID)
		if err != nil {
			n.logger.Error("record sos notification", "alert", a.ID, "error", err)
			return
		}
		if !fresh {
			return
		}

		sent := n.dispatch.Deliver(ctx, model.NotifTypeSosCreated, CreatedRoles, Payload{
			Title: "SOS from " + a.ElderName,
			Body:  fmt.Sprintf("%s needs help at %s", a.ElderName, a.Location),
			URL:   "/caregiver-dashboard",
			Tag:   "sos-" + a.ID,
		})
		n.logger.Info("sos notification sent", "alert", a.ID, "delivered", sent)
	}()
}

// Wait blocks until in-flight deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
