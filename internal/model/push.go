package model

import "time"

// Notification kinds recorded in push_log.
const (
	NotifTypeSosCreated   = "sos_created"
	NotifTypeSosEscalated = "sos_escalated"
)

type PushSubscription struct {
	ID        int64     `json:"id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh_key"`
	AuthKey   string    `json:"auth_key"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
