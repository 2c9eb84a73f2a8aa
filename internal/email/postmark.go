// Package email sends SOS escalation emails through Postmark.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/carewatch/internal/model"
)

const postmarkURL = "https://api.postmarkapp.com/email"

// Config holds the Postmark credentials and the escalation recipients.
type Config struct {
	ServerToken string
	From        string
	To          []string
}

type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithEndpoint overrides the Postmark API URL.
func WithEndpoint(url string) Option {
	return func(cl *Client) {
		cl.endpoint = url
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		endpoint:   postmarkURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if a token, a sender and at least one recipient are set.
func (c *Client) Configured() bool {
	return c.cfg.ServerToken != "" && c.cfg.From != "" && len(c.cfg.To) > 0
}

type postmarkEmail struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HtmlBody      string `json:"HtmlBody"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

// SendEscalation tells the configured contacts that an SOS alert has gone
// unanswered for waiting.
func (c *Client) SendEscalation(ctx context.Context, a model.SosAlert, waiting time.Duration) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured")
	}

	subject := fmt.Sprintf("SOS from %s still unanswered", a.ElderName)
	textBody := fmt.Sprintf(
		"%s raised an SOS at %s %s ago and no caregiver has taken it yet.\n\nRaised at: %s UTC\nAlert: %s",
		a.ElderName, a.Location, waiting.Round(time.Minute), a.CreatedAt.Format("2006-01-02 15:04"), a.ID,
	)
	htmlBody := fmt.Sprintf(
		`<p><strong>%s</strong> raised an SOS at <strong>%s</strong> %s ago and no caregiver has taken it yet.</p><p>Raised at %s UTC.</p>`,
		escape(a.ElderName), escape(a.Location), waiting.Round(time.Minute), a.CreatedAt.Format("2006-01-02 15:04"),
	)

	return c.send(ctx, postmarkEmail{
		From:          c.cfg.From,
		To:            strings.Join(c.cfg.To, ","),
		Subject:       subject,
		HtmlBody:      htmlBody,
		TextBody:      textBody,
		MessageStream: "outbound",
	})
}

func (c *Client) send(ctx context.Context, msg postmarkEmail) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.cfg.ServerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}
	return nil
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;")

func escape(s string) string {
	return htmlEscaper.Replace(s)
}
