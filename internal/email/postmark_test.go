package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/carewatch/internal/model"
)

var testAlert = model.SosAlert{
	ID:        "a1",
	ElderName: "Asha <Nani>",
	Location:  "Kitchen",
	Status:    model.AlertPending,
	CreatedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
}

func testConfig() Config {
	return Config{
		ServerToken: "test-token",
		From:        "alerts@carewatch.test",
		To:          []string{"son@example.com", "daughter@example.com"},
	}
}

func TestSendEscalation(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(), WithEndpoint(server.URL), WithHTTPClient(server.Client()))
	if err := client.SendEscalation(context.Background(), testAlert, 6*time.Minute); err != nil {
		t.Fatalf("send escalation: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "son@example.com,daughter@example.com" {
		t.Errorf("To = %q", received.To)
	}
	if received.From != "alerts@carewatch.test" {
		t.Errorf("From = %q", received.From)
	}
	if received.Subject != "SOS from Asha <Nani> still unanswered" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, "6m0s ago") {
		t.Errorf("TextBody = %q", received.TextBody)
	}
	if strings.Contains(received.HtmlBody, "<Nani>") || !strings.Contains(received.HtmlBody, "&lt;Nani&gt;") {
		t.Errorf("HtmlBody not escaped: %q", received.HtmlBody)
	}
}

func TestSendEscalationNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.To = nil
	client := NewClient(cfg)

	if err := client.SendEscalation(context.Background(), testAlert, time.Minute); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestSendEscalationAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(testConfig(), WithEndpoint(server.URL))
	if err := client.SendEscalation(context.Background(), testAlert, time.Minute); err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestConfigured(t *testing.T) {
	if !NewClient(testConfig()).Configured() {
		t.Error("expected Configured() = true")
	}

	for name, mutate := range map[string]func(*Config){
		"no token": func(c *Config) { c.ServerToken = "" },
		"no from":  func(c *Config) { c.From = "" },
		"no to":    func(c *Config) { c.To = nil },
	} {
		cfg := testConfig()
		mutate(&cfg)
		if NewClient(cfg).Configured() {
			t.Errorf("%s: expected Configured() = false", name)
		}
	}
}
