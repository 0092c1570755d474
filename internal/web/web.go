package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"custodycal/internal/config"
	"custodycal/internal/ics"
	appLog "custodycal/internal/log"
	"custodycal/internal/pipeline"
	"custodycal/internal/render"
	"custodycal/internal/schedule"
)

// Server serves the latest schedule plan: the calendar page, its exports
// and a small JSON API. The plan is rebuilt from disk on a cron schedule;
// a failed rebuild keeps the previous plan.
type Server struct {
	cfg      *config.Config
	pipe     *pipeline.Pipeline
	gatherer prometheus.Gatherer
	mux      *http.ServeMux

	planMu  sync.RWMutex
	plan    *schedule.Plan
	builtAt time.Time

	// Rendered calendar page of the current plan.
	pageMu sync.Mutex
	page   *pageCache
}

type pageCache struct {
	plan *schedule.Plan
	body []byte
}

// NewServer constructs a new Server. gatherer backs /metrics; nil means
// the default Prometheus registry.
func NewServer(pipe *pipeline.Pipeline, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		cfg:      pipe.Config(),
		pipe:     pipe,
		gatherer: gatherer,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth rather than lock everyone out.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="custodycal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Refresh rebuilds the plan from disk and swaps it in. On failure the
// current plan stays in place.
func (s *Server) Refresh() error {
	plan, err := s.pipe.Build()
	if err != nil {
		appLog.Error("plan rebuild failed; keeping previous plan", err)
		return err
	}
	s.planMu.Lock()
	s.plan = plan
	s.builtAt = time.Now()
	s.planMu.Unlock()
	return nil
}

// current returns the plan being served, or nil before the first build.
func (s *Server) current() (*schedule.Plan, time.Time) {
	s.planMu.RLock()
	defer s.planMu.RUnlock()
	return s.plan, s.builtAt
}

// Run builds the first plan, schedules rebuilds and serves HTTP on
// cfg.Listen until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Refresh(); err != nil {
		return err
	}

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.RefreshCron, func() { _ = s.Refresh() }); err != nil {
		return err
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("http server shutdown failed", err)
		}
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "refresh", s.cfg.RefreshCron)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.withPlan(s.handleIndex))
	s.mux.HandleFunc("GET /style.css", s.withPlan(s.handleCSS))
	s.mux.HandleFunc("GET /custody.ics", s.withPlan(s.handleICS))
	s.mux.HandleFunc("GET /audit.csv", s.withPlan(s.handleAudit))
	s.mux.HandleFunc("GET /api/lookup", s.withPlan(s.handleLookup))
	s.mux.HandleFunc("GET /api/stats", s.withPlan(s.handleStats))
	s.mux.HandleFunc("GET /api/markers", s.withPlan(s.handleMarkers))
	s.mux.HandleFunc("GET /api/events", s.withPlan(s.handleEvents))
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

type planHandler func(http.ResponseWriter, *http.Request, *schedule.Plan)

// withPlan answers 503 until the first plan has been built.
func (s *Server) withPlan(h planHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, _ := s.current()
		if plan == nil {
			writeError(w, http.StatusServiceUnavailable, "schedule not built yet")
			return
		}
		h(w, r, plan)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request, plan *schedule.Plan) {
	body, err := s.renderPage(plan)
	if err != nil {
		appLog.Error("calendar render failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render calendar")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// renderPage renders the calendar once per plan.
func (s *Server) renderPage(plan *schedule.Plan) ([]byte, error) {
	s.pageMu.Lock()
	defer s.pageMu.Unlock()
	if s.page != nil && s.page.plan == plan {
		return s.page.body, nil
	}
	opts := s.pipe.RenderOptions()
	opts.StylesheetHref = "/style.css"
	var buf bytes.Buffer
	if err := render.WriteHTML(&buf, plan, opts, "/custody.ics", "/audit.csv"); err != nil {
		return nil, err
	}
	s.page = &pageCache{plan: plan, body: buf.Bytes()}
	return s.page.body, nil
}

func (s *Server) handleCSS(w http.ResponseWriter, _ *http.Request, plan *schedule.Plan) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(render.Stylesheet(s.pipe.RenderOptions().ForPlan(plan).Custodians)))
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request, plan *schedule.Plan) {
	events, err := s.pipe.Events(plan)
	if errors.Is(err, schedule.ErrNoEventsGenerated) {
		writeError(w, http.StatusNotFound, "no events generated")
		return
	}
	if err != nil {
		appLog.Error("event projection failed", err)
		writeError(w, http.StatusInternalServerError, "failed to project events")
		return
	}
	var buf bytes.Buffer
	if err := ics.Encode(&buf, events, s.pipe.ICSOptions()); err != nil {
		appLog.Error("ics encode failed", err)
		writeError(w, http.StatusInternalServerError, "failed to encode calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="custody_schedule.ics"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleAudit(w http.ResponseWriter, _ *http.Request, plan *schedule.Plan) {
	var buf bytes.Buffer
	if err := render.WriteAudit(&buf, plan, s.pipe.RenderOptions(), time.Now()); err != nil {
		appLog.Error("audit render failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render audit")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="custody_calculation_audit.csv"`)
	_, _ = w.Write(buf.Bytes())
}

// statusResponse is the JSON response shape for /api/status.
type statusResponse struct {
	Ready     bool      `json:"ready"`
	BuiltAt   time.Time `json:"built_at,omitzero"`
	StartYear int       `json:"start_year,omitempty"`
	EndYear   int       `json:"end_year,omitempty"`
	Anchor    string    `json:"anchor,omitempty"`
	Days      int       `json:"days"`
	Warnings  []string  `json:"warnings"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	plan, builtAt := s.current()
	resp := statusResponse{Warnings: []string{}}
	if plan != nil {
		resp.Ready = true
		resp.BuiltAt = builtAt
		resp.StartYear = plan.Map.StartYear
		resp.EndYear = plan.Map.EndYear
		resp.Anchor = plan.Anchor.Format(schedule.DateKey)
		resp.Days = len(plan.Days)
		for _, w := range plan.Warnings {
			resp.Warnings = append(resp.Warnings, w.Error())
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if err := s.Refresh(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.handleStatus(w, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
