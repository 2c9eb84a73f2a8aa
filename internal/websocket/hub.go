package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/carewatch/internal/alert"
)

// Message tells dashboards that a record changed. Data carries the record
// as it is served by the REST API.
type Message struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Entities broadcast over the hub.
const (
	EntitySosAlert       = "sos_alert"
	EntityVitalReading   = "vital_reading"
	EntityCaregiverVisit = "caregiver_visit"
	EntityHealth         = "health"
)

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action, id string, data any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Data:   data,
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	ready   bool
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		ready:   true,
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("client connected", "clients", h.ClientCount())
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients. Clients whose buffer
// is full miss the message; dashboards refetch on reconnect.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// AlertChanged broadcasts an alert transition. Reaching an alert also
// announces the visit it logged.
func (h *Hub) AlertChanged(_ context.Context, c alert.Change) {
	h.Broadcast(NewMessage(EntitySosAlert, string(c.Event), c.Alert.ID, c.Alert))
	if c.Visit != nil {
		h.Broadcast(NewMessage(EntityCaregiverVisit, "created", c.Visit.ID, c.Visit))
	}
}

// HealthChanged announces database readiness so dashboards can show an
// offline banner. Its signature matches health.State.OnChange callbacks.
func (h *Hub) HealthChanged(ready bool) {
	h.mu.Lock()
	h.ready = ready
	h.mu.Unlock()
	h.Broadcast(healthMessage(ready))
}

func healthMessage(ready bool) Message {
	action := "down"
	if ready {
		action = "up"
	}
	return NewMessage(EntityHealth, action, "", map[string]bool{"database": ready})
}

// healthFrame encodes the last announced readiness for a new client.
func (h *Hub) healthFrame() ([]byte, error) {
	h.mu.RLock()
	ready := h.ready
	h.mu.RUnlock()
	return json.Marshal(healthMessage(ready))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
