// Package push delivers web push notifications about SOS alerts to
// subscribed dashboards.
package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dukerupert/carewatch/internal/model"
)

// ErrExpired is returned when a push subscription is no longer valid (404/410).
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON sent to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Config holds VAPID configuration.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// Subscriber is the contact address sent to push services.
	Subscriber string
}

// Enabled reports whether both VAPID keys are set.
func (c Config) Enabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// Sender delivers one payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

// Service sends web push notifications signed with the VAPID keys.
type Service struct {
	cfg    Config
	client webpush.HTTPClient
	ttl    int
}

func NewService(cfg Config) *Service {
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    int((time.Hour).Seconds()),
	}
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.cfg.VAPIDPublicKey
}

func (s *Service) Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		// the library adds the mailto: scheme itself
		Subscriber: strings.TrimPrefix(s.cfg.Subscriber, "mailto:"),
		TTL:        s.ttl,
		Urgency:    webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// GenerateVAPIDKeys generates a new P-256 key pair for VAPID, encoded as
// unpadded base64url.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate P-256 key: %w", err)
	}

	publicKey = base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes())
	privateKey = base64.RawURLEncoding.EncodeToString(key.Bytes())
	return publicKey, privateKey, nil
}
