package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/carewatch/internal/database"
	"github.com/dukerupert/carewatch/internal/health"
	"github.com/dukerupert/carewatch/internal/middleware"
	"github.com/dukerupert/carewatch/internal/push"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type testServer struct {
	*httptest.Server
	state *health.State
	db    *sql.DB
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if opts.Location == nil {
		opts.Location = time.UTC
	}
	state := health.New()
	state.SetReady()

	srv := New(db, state, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Stop)
	return &testServer{Server: ts, state: state, db: db}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp, env
}

type alertBody struct {
	ID         string  `json:"id"`
	ElderName  string  `json:"elderName"`
	Location   string  `json:"location"`
	Status     string  `json:"status"`
	AssignedTo *string `json:"assignedTo"`
}

type visitBody struct {
	ID            string `json:"id"`
	CaregiverName string `json:"caregiverName"`
	ElderName     string `json:"elderName"`
}

func TestAlertLifecycleEndToEnd(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, env := ts.do(t, "POST", "/api/v1/sos-alerts", map[string]string{"elderName": "A", "location": "L"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var a alertBody
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, "pending", a.Status)
	assert.Nil(t, a.AssignedTo)

	resp, env = ts.do(t, "PATCH", "/api/v1/sos-alerts/"+a.ID, map[string]string{"status": "assigned", "assignedTo": "B"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, "assigned", a.Status)

	resp, env = ts.do(t, "PATCH", "/api/v1/sos-alerts/"+a.ID, map[string]string{"status": "reached"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, "reached", a.Status)

	resp, env = ts.do(t, "GET", "/api/v1/visits", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var visits []visitBody
	require.NoError(t, json.Unmarshal(env.Data, &visits))
	require.Len(t, visits, 1)
	assert.Equal(t, "B", visits[0].CaregiverName)
	assert.Equal(t, "A", visits[0].ElderName)

	resp, env = ts.do(t, "GET", "/api/v1/sos-alerts/"+a.ID+"/visits", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var linked []visitBody
	require.NoError(t, json.Unmarshal(env.Data, &linked))
	require.Len(t, linked, 1)
	assert.Equal(t, visits[0].ID, linked[0].ID)

	resp, env = ts.do(t, "PATCH", "/api/v1/sos-alerts/"+a.ID, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestListAlertsIsIdempotent(t *testing.T) {
	ts := newTestServer(t, Options{})
	for _, loc := range []string{"Kitchen", "Garden", "Hall"} {
		resp, _ := ts.do(t, "POST", "/api/v1/sos-alerts", map[string]string{"elderName": "Asha", "location": loc})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	_, first := ts.do(t, "GET", "/api/v1/sos-alerts", nil)
	_, second := ts.do(t, "GET", "/api/v1/sos-alerts", nil)
	assert.JSONEq(t, string(first.Data), string(second.Data))

	var alerts []alertBody
	require.NoError(t, json.Unmarshal(first.Data, &alerts))
	assert.Len(t, alerts, 3)
}

func TestEmptyListsAreArrays(t *testing.T) {
	ts := newTestServer(t, Options{})
	for _, path := range []string{"/api/v1/sos-alerts", "/api/v1/vitals", "/api/v1/visits"} {
		resp, env := ts.do(t, "GET", path, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "[]", string(env.Data), path)
	}
}

func TestValidationAndNotFound(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, env := ts.do(t, "POST", "/api/v1/sos-alerts", map[string]string{"elderName": "A"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "location is required", env.Message)

	resp, env = ts.do(t, "POST", "/api/v1/vitals", map[string]any{"systolic": 120, "diastolic": -1, "hr": 70})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "diastolic must be at least 0", env.Message)

	resp, env = ts.do(t, "POST", "/api/v1/vitals", map[string]any{"systolic": "high", "diastolic": 80, "hr": 70})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "systolic must be a number", env.Message)

	resp, _ = ts.do(t, "POST", "/api/v1/visits", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, "GET", "/api/v1/sos-alerts/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, "PATCH", "/api/v1/sos-alerts/missing", map[string]string{"status": "reached"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = ts.do(t, "GET", "/api/v1/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestVitalsAndRisk(t *testing.T) {
	ts := newTestServer(t, Options{})

	_, env := ts.do(t, "GET", "/api/v1/vitals/risk", nil)
	assert.JSONEq(t, `{"level":"no-data","latest":null}`, string(env.Data))

	resp, env := ts.do(t, "POST", "/api/v1/vitals", map[string]any{"systolic": 145, "diastolic": 80, "hr": 70})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var v struct {
		ElderName string  `json:"elderName"`
		HeartRate float64 `json:"hr"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, "Elder", v.ElderName)
	assert.Equal(t, 70.0, v.HeartRate)

	_, env = ts.do(t, "GET", "/api/v1/vitals/risk", nil)
	var r struct {
		Level string `json:"level"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, "high-risk", r.Level)
}

func TestMonthlySummary(t *testing.T) {
	ts := newTestServer(t, Options{})

	for _, body := range []map[string]any{
		{"systolic": 120, "diastolic": 80, "hr": 70, "ts": "2026-03-02T08:00:00Z"},
		{"systolic": 140, "diastolic": 90, "hr": 75, "ts": "2026-03-20T08:00:00Z"},
		{"systolic": 200, "diastolic": 100, "hr": 90, "ts": "2026-04-01T00:00:00Z"},
	} {
		resp, env := ts.do(t, "POST", "/api/v1/vitals", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	}

	resp, env := ts.do(t, "GET", "/api/v1/summary/monthly?date=2026-03-15T12:00:00Z", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	assert.JSONEq(t, `{"totalSos":0,"avgBp":"130/85","avgHr":72.5,"caregiverVisits":0}`, string(env.Data))

	resp, env = ts.do(t, "GET", "/api/v1/summary/monthly?date=2026-02-10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"totalSos":0,"avgBp":"—","avgHr":"—","caregiverVisits":0}`, string(env.Data))

	resp, env = ts.do(t, "GET", "/api/v1/summary/monthly?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Message, "date")
}

func TestUnavailableWhileDatabaseDown(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.state.SetDown(errors.New("volume not mounted"))

	resp, env := ts.do(t, "GET", "/api/v1/sos-alerts", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, middleware.DBUnavailableHint, env.Message)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ts.state.SetReady()
	resp, _ = ts.do(t, "GET", "/api/v1/sos-alerts", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLostConnectionAnswersUnavailable(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.db.Close()

	// The monitor has not noticed yet, so the gate still lets requests in.
	require.True(t, ts.state.Ready())
	resp, env := ts.do(t, "GET", "/api/v1/sos-alerts", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get("Retry-After"))
	assert.Equal(t, middleware.DBUnavailableHint, env.Message)
}

func TestBannerHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"message":"CareWatch API running"}`, string(body))

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	ts.do(t, "GET", "/api/v1/sos-alerts", nil)
	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "carewatch_db_up 1")
	assert.Contains(t, string(body), `route="GET /api/v1/sos-alerts"`)
}

func TestEnforcedRoles(t *testing.T) {
	ts := newTestServer(t, Options{EnforceRoles: true})

	resp, _ := ts.do(t, "GET", "/api/v1/sos-alerts", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := ts.do(t, "POST", "/api/v1/sos-alerts", map[string]string{"elderName": "A", "location": "L"}, middleware.RoleHeader, "elder")
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var a alertBody
	require.NoError(t, json.Unmarshal(env.Data, &a))

	resp, _ = ts.do(t, "PATCH", "/api/v1/sos-alerts/"+a.ID, map[string]string{"assignedTo": "B"}, middleware.RoleHeader, "elder")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, "PATCH", "/api/v1/sos-alerts/"+a.ID, map[string]string{"assignedTo": "B"}, middleware.RoleHeader, "caregiver")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = ts.do(t, "GET", "/api/v1/me", nil, middleware.RoleHeader, "doctor")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		Role  string   `json:"role"`
		Views []string `json:"views"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "doctor", me.Role)
	assert.Equal(t, []string{"doctor-dashboard", "monthly-summary"}, me.Views)
}

func TestSOSRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{SOSRateLimit: 2})

	for i := 0; i < 2; i++ {
		resp, _ := ts.do(t, "POST", "/api/v1/sos-alerts", map[string]string{"elderName": "A", "location": "L"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, env := ts.do(t, "POST", "/api/v1/sos-alerts", map[string]string{"elderName": "A", "location": "L"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.False(t, env.Success)

	resp, _ = ts.do(t, "GET", "/api/v1/sos-alerts", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPushRoutesOnlyWhenConfigured(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, _ := ts.do(t, "GET", "/api/v1/push/vapid-key", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPushSubscriptionRoutes(t *testing.T) {
	ts2 := newTestServer(t, Options{Push: push.Config{
		VAPIDPublicKey:  "public-key",
		VAPIDPrivateKey: "private-key",
		Subscriber:      "ops@example.com",
	}})

	resp, env := ts2.do(t, "GET", "/api/v1/push/vapid-key", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), "publicKey")

	resp, env = ts2.do(t, "POST", "/api/v1/push/subscriptions", map[string]string{
		"endpoint": "https://push.example.com/abc", "p256dh": "k", "auth": "a",
	}, middleware.RoleHeader, "caregiver")
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var sub struct {
		ID   int64  `json:"id"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.Equal(t, "caregiver", sub.Role)

	resp, _ = ts2.do(t, "POST", "/api/v1/push/subscriptions", map[string]string{
		"endpoint": "https://push.example.com/def", "p256dh": "k", "auth": "a",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts2.do(t, "DELETE", "/api/v1/push/subscriptions/"+strconv.FormatInt(sub.ID, 10), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = ts2.do(t, "DELETE", "/api/v1/push/subscriptions/"+strconv.FormatInt(sub.ID, 10), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflightBypassesReadiness(t *testing.T) {
	ts := newTestServer(t, Options{CORSOrigins: []string{"*"}})
	ts.state.SetDown(nil)

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodOptions, ts.URL+"/api/v1/sos-alerts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type,"+strings.ToLower(middleware.RoleHeader))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(resp.Header.Get("Access-Control-Allow-Headers")), strings.ToLower(middleware.RoleHeader))
}
