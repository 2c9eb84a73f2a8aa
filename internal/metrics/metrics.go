// Package metrics exposes Prometheus collectors for alert lifecycle
// activity, record writes, push delivery and HTTP latency.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/carewatch/internal/alert"
	"github.com/dukerupert/carewatch/internal/risk"
)

const namespace = "carewatch"

type Metrics struct {
	registry *prometheus.Registry

	alertTransitions *prometheus.CounterVec
	vitalsRecorded   *prometheus.CounterVec
	visitsLogged     prometheus.Counter
	pushSent         *prometheus.CounterVec
	dbUp             prometheus.Gauge
	requestDuration  *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, alongside the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		alertTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sos",
			Name:      "transitions_total",
			Help:      "SOS alert lifecycle transitions by event",
		}, []string{"event"}),
		vitalsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vitals",
			Name:      "recorded_total",
			Help:      "Vital readings recorded, by risk level of the reading",
		}, []string{"level"}),
		visitsLogged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "visits",
			Name:      "logged_total",
			Help:      "Caregiver visits logged",
		}),
		pushSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "sent_total",
			Help:      "Push notifications attempted, by type and result",
		}, []string{"type", "result"}),
		dbUp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "up",
			Help:      "1 when the database is connected and migrated",
		}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// AlertChanged counts a committed lifecycle transition. A reached alert
// also counts the visit it logged.
func (m *Metrics) AlertChanged(_ context.Context, c alert.Change) {
	m.alertTransitions.WithLabelValues(string(c.Event)).Inc()
	if c.Visit != nil {
		m.visitsLogged.Inc()
	}
}

func (m *Metrics) VitalRecorded(level risk.Level) {
	m.vitalsRecorded.WithLabelValues(string(level)).Inc()
}

func (m *Metrics) VisitLogged() {
	m.visitsLogged.Inc()
}

func (m *Metrics) PushSent(notifType string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.pushSent.WithLabelValues(notifType, result).Inc()
}

// SetDBUp matches the signature of health.State.OnChange callbacks.
func (m *Metrics) SetDBUp(ready bool) {
	if ready {
		m.dbUp.Set(1)
		return
	}
	m.dbUp.Set(0)
}

// GaugeFunc registers a gauge whose value is read from fn on scrape.
func (m *Metrics) GaugeFunc(subsystem, name, help string, fn func() float64) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn)
}

// Instrument records request latency for h under route.
func (m *Metrics) Instrument(route string, h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(
		m.requestDuration.MustCurryWith(prometheus.Labels{"route": route}), h)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
