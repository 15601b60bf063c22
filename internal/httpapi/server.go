package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/statusnotifier/internal/httpapi/middleware"
	"github.com/hamed0406/statusnotifier/internal/domain"
	"github.com/hamed0406/statusnotifier/internal/repo"
	"github.com/hamed0406/statusnotifier/internal/report"
	"github.com/hamed0406/statusnotifier/internal/runner"
)

// Evaluator produces a fresh status list on every call.
type Evaluator interface {
	Evaluate(ctx context.Context) ([]domain.ServiceStatus, error)
}

// Runner performs a full run including notifications and publishing.
type Runner interface {
	Run(ctx context.Context) runner.Result
}

type Server struct {
	Logger    *zap.Logger
	Evaluator Evaluator
	Runner    Runner
	Snapshots repo.SnapshotStore   // optional
	Gatherer  prometheus.Gatherer // optional

	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []netip.Prefix
}

func NewServer(l *zap.Logger, ev Evaluator, rn Runner, snaps repo.SnapshotStore, g prometheus.Gatherer) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Evaluator: ev, Runner: rn, Snapshots: snaps, Gatherer: g}
}

func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, publicRPM, publicBurst, adminRPM, adminBurst int) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(publicRPM, publicBurst, s.TrustedProxies...))
		r.Use(apimw.RequireAny(keys))
		r.Get("/api/status", s.handleStatus)
		r.Get("/status.html", s.handleStatusPage)
		r.Get("/api/snapshot", s.handleSnapshot)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(adminRPM, adminBurst, s.TrustedProxies...))
		r.Use(apimw.RequireAdmin(keys))
		r.Post("/api/run", s.handleRun)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.Evaluator.Evaluate(r.Context())
	if err != nil {
		s.Logger.Warn("evaluate_failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "could not load services")
		return
	}
	body, err := report.Compact(statuses)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.Evaluator.Evaluate(r.Context())
	if err != nil {
		s.Logger.Warn("evaluate_failed", zap.Error(err))
		http.Error(w, "could not load services", http.StatusServiceUnavailable)
		return
	}
	page, err := report.HTML(statuses)
	if err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.Snapshots == nil {
		writeError(w, http.StatusNotFound, "snapshot store not configured")
		return
	}
	snap, err := s.Snapshots.Latest(r.Context())
	if errors.Is(err, repo.ErrNoSnapshot) {
		writeError(w, http.StatusNotFound, "no snapshot yet")
		return
	}
	if err != nil {
		s.Logger.Warn("snapshot_read_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "snapshot error")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type runResponse struct {
	RunID     string                 `json:"run_id"`
	State     runner.State           `json:"state"`
	Statuses  []domain.ServiceStatus `json:"statuses"`
	Unhealthy []string               `json:"unhealthy"`
	Notified  bool                   `json:"notified"`
	Error     string                 `json:"error,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.Runner == nil {
		writeError(w, http.StatusNotFound, "runs disabled")
		return
	}
	res := s.Runner.Run(r.Context())
	out := runResponse{
		RunID:     res.RunID,
		State:     res.State,
		Statuses:  res.Statuses,
		Unhealthy: domain.Names(res.Unhealthy),
		Notified:  res.Notified,
	}
	code := http.StatusOK
	if res.Err != nil {
		out.Error = res.Err.Error()
		code = http.StatusServiceUnavailable
	}
	s.Logger.Info("run_requested", zap.String("run_id", res.RunID), zap.String("state", string(res.State)))
	writeJSON(w, code, out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
