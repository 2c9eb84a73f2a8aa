package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/carewatch/internal/alert"
	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/risk"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestAlertChangedCountsTransitionsAndVisits(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.AlertChanged(ctx, alert.Change{Event: alert.EventCreated})
	m.AlertChanged(ctx, alert.Change{Event: alert.EventAssigned})
	m.AlertChanged(ctx, alert.Change{Event: alert.EventReached, Visit: &model.CaregiverVisit{ID: "v1"}})

	body := scrape(t, m)
	assert.Contains(t, body, `carewatch_sos_transitions_total{event="created"} 1`)
	assert.Contains(t, body, `carewatch_sos_transitions_total{event="reached"} 1`)
	assert.Contains(t, body, `carewatch_visits_logged_total 1`)
}

func TestVitalAndPushCounters(t *testing.T) {
	m := New()

	m.VitalRecorded(risk.LevelHigh)
	m.VitalRecorded(risk.LevelHigh)
	m.VitalRecorded(risk.LevelNormal)
	m.PushSent(model.NotifTypeSosCreated, true)
	m.PushSent(model.NotifTypeSosCreated, false)

	body := scrape(t, m)
	assert.Contains(t, body, `carewatch_vitals_recorded_total{level="high-risk"} 2`)
	assert.Contains(t, body, `carewatch_push_sent_total{result="error",type="sos_created"} 1`)
}

func TestSetDBUp(t *testing.T) {
	m := New()

	m.SetDBUp(true)
	assert.Contains(t, scrape(t, m), "carewatch_db_up 1")
	m.SetDBUp(false)
	assert.Contains(t, scrape(t, m), "carewatch_db_up 0")
}

func TestHandlerExposesInstrumentedRoute(t *testing.T) {
	m := New()
	m.GaugeFunc("websocket", "clients", "Connected dashboards", func() float64 { return 3 })

	h := m.Instrument("GET /api/v1/vitals", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/vitals", nil))

	body := scrape(t, m)
	assert.Contains(t, body, `carewatch_http_request_duration_seconds_count{code="200",method="get",route="GET /api/v1/vitals"} 1`)
	assert.Contains(t, body, "carewatch_websocket_clients 3")
}
