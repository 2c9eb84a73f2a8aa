package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/carewatch/internal/alert"
	"github.com/dukerupert/carewatch/internal/auth"
	"github.com/dukerupert/carewatch/internal/email"
	"github.com/dukerupert/carewatch/internal/handler"
	"github.com/dukerupert/carewatch/internal/health"
	"github.com/dukerupert/carewatch/internal/metrics"
	"github.com/dukerupert/carewatch/internal/middleware"
	"github.com/dukerupert/carewatch/internal/push"
	"github.com/dukerupert/carewatch/internal/respond"
	"github.com/dukerupert/carewatch/internal/store"
	"github.com/dukerupert/carewatch/internal/summary"
	ws "github.com/dukerupert/carewatch/internal/websocket"
)

// Options carries the settings the router and background jobs need.
type Options struct {
	CORSOrigins    []string
	EnforceRoles   bool
	AccessCodeHash []byte
	// SOSRateLimit caps alert creation per client IP per minute. Zero
	// disables the limit.
	SOSRateLimit  int
	Location      *time.Location
	Push          push.Config
	Email         email.Config
	EscalateAfter time.Duration
}

type Server struct {
	db          *sql.DB
	state       *health.State
	opts        Options
	hub         *ws.Hub
	metrics     *metrics.Metrics
	alertH      *handler.AlertHandler
	vitalH      *handler.VitalHandler
	visitH      *handler.VisitHandler
	summaryH    *handler.SummaryHandler
	pushH       *handler.PushHandler
	rateLimiter *middleware.RateLimiter
	notifier    *push.Notifier
	scheduler   *push.Scheduler
	pushStore   *store.PushStore
	logger      *slog.Logger
}

func New(db *sql.DB, state *health.State, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	m := metrics.New()
	m.GaugeFunc("websocket", "clients", "Connected dashboard websockets", func() float64 {
		return float64(hub.ClientCount())
	})

	state.OnChange(m.SetDBUp)
	state.OnChange(hub.HealthChanged)
	m.SetDBUp(state.Ready())
	hub.HealthChanged(state.Ready())

	alertStore := store.NewAlertStore(db)
	vitalStore := store.NewVitalStore(db)
	visitStore := store.NewVisitStore(db)
	pushStore := store.NewPushStore(db)

	alertSvc := alert.NewService(alertStore, logger.With("component", "alert"), hub, m)
	summarySvc := summary.NewService(alertStore, vitalStore, visitStore, opts.Location)

	s := &Server{
		db:          db,
		state:       state,
		opts:        opts,
		hub:         hub,
		metrics:     m,
		alertH:      handler.NewAlertHandler(alertSvc, visitStore, logger.With("component", "sos_alert")),
		vitalH:      handler.NewVitalHandler(vitalStore, hub, m, logger.With("component", "vital")),
		visitH:      handler.NewVisitHandler(visitStore, hub, m, logger.With("component", "visit")),
		summaryH:    handler.NewSummaryHandler(summarySvc, logger.With("component", "summary")),
		rateLimiter: middleware.NewRateLimiter(),
		pushStore:   pushStore,
		logger:      logger,
	}

	pushLogger := logger.With("component", "push")
	var dispatcher *push.Dispatcher
	if opts.Push.Enabled() {
		dispatcher = push.NewDispatcher(push.NewService(opts.Push), pushStore, pushLogger, m.PushSent)
		s.notifier = push.NewNotifier(dispatcher, pushStore, pushLogger)
		alertSvc.Observe(s.notifier)
		s.pushH = handler.NewPushHandler(pushStore, opts.Push.VAPIDPublicKey, logger.With("component", "push_handler"))
	}

	mailer := email.NewClient(opts.Email)
	if opts.EscalateAfter > 0 && (dispatcher != nil || mailer.Configured()) {
		s.scheduler = push.NewScheduler(dispatcher, pushStore, alertStore, opts.EscalateAfter, pushLogger)
		if mailer.Configured() {
			s.scheduler.SetMailer(mailer)
		}
	}

	return s
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Metrics returns the Prometheus collectors.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Start launches background jobs. They stop when ctx is cancelled or Stop
// is called.
func (s *Server) Start(ctx context.Context) {
	go s.rateLimiter.RunCleanup(ctx, time.Minute)
	if s.scheduler != nil {
		s.scheduler.Start(ctx)
	}
}

// Stop waits for the escalation scheduler and in-flight notifications.
func (s *Server) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.notifier != nil {
		s.notifier.Wait()
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	outerMux.HandleFunc("GET /{$}", handler.Banner)
	outerMux.HandleFunc("GET /health", handler.Health(s.state))
	outerMux.Handle("GET /metrics", s.metrics.Handler())
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.opts.CORSOrigins, s.logger.With("component", "websocket")))

	apiMux := http.NewServeMux()
	s.registerAPIRoutes(apiMux)

	identify := middleware.Identify(middleware.IdentifyConfig{
		AccessCodeHash: s.opts.AccessCodeHash,
		Enforce:        s.opts.EnforceRoles,
	}, s.logger.With("component", "auth"))
	outerMux.Handle("/api/", middleware.RequireReady(s.state)(identify(apiMux)))

	var h http.Handler = outerMux
	h = middleware.CORS(s.opts.CORSOrigins)(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

// route registers h under pattern behind the permission check for a and
// latency instrumentation.
func (s *Server) route(mux *http.ServeMux, pattern string, a auth.Action, h http.Handler) {
	h = middleware.RequirePermission(s.opts.EnforceRoles, a)(h)
	mux.Handle(pattern, s.metrics.Instrument(pattern, h))
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	if s.opts.SOSRateLimit <= 0 {
		return h
	}
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP, s.opts.SOSRateLimit, time.Minute)(h)
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// SOS alerts
	s.route(mux, "GET /api/v1/sos-alerts", auth.ActionViewAlerts, http.HandlerFunc(s.alertH.List))
	s.route(mux, "POST /api/v1/sos-alerts", auth.ActionRaiseSOS, s.rateLimited(s.alertH.Create))
	s.route(mux, "GET /api/v1/sos-alerts/{id}", auth.ActionViewAlerts, http.HandlerFunc(s.alertH.Get))
	s.route(mux, "PATCH /api/v1/sos-alerts/{id}", auth.ActionRespondAlert, http.HandlerFunc(s.alertH.Patch))
	s.route(mux, "GET /api/v1/sos-alerts/{id}/visits", auth.ActionViewVisits, http.HandlerFunc(s.alertH.Visits))

	// Vitals
	s.route(mux, "GET /api/v1/vitals", auth.ActionViewVitals, http.HandlerFunc(s.vitalH.List))
	s.route(mux, "POST /api/v1/vitals", auth.ActionRecordVitals, http.HandlerFunc(s.vitalH.Create))
	s.route(mux, "GET /api/v1/vitals/risk", auth.ActionViewVitals, http.HandlerFunc(s.vitalH.Risk))

	// Visits
	s.route(mux, "GET /api/v1/visits", auth.ActionViewVisits, http.HandlerFunc(s.visitH.List))
	s.route(mux, "POST /api/v1/visits", auth.ActionLogVisit, http.HandlerFunc(s.visitH.Create))

	s.route(mux, "GET /api/v1/summary/monthly", auth.ActionViewSummary, http.HandlerFunc(s.summaryH.Monthly))

	mux.HandleFunc("GET /api/v1/me", handler.Me(s.opts.EnforceRoles))

	if s.pushH != nil {
		mux.HandleFunc("GET /api/v1/push/vapid-key", s.pushH.VAPIDKey)
		s.route(mux, "POST /api/v1/push/subscriptions", auth.ActionSubscribe, http.HandlerFunc(s.pushH.Subscribe))
		s.route(mux, "DELETE /api/v1/push/subscriptions/{id}", auth.ActionSubscribe, http.HandlerFunc(s.pushH.Unsubscribe))
	}

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusNotFound, "route not found: "+r.Method+" "+r.URL.Path)
	})
}
