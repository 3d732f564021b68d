package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ServiceQueryParam selects an explicit service name on GET /health. Its
// presence, even with an empty value, counts as a supplied name.
const ServiceQueryParam = "service"

type Server interface {
	GetHealth(ctx context.Context) (*Report, error)
	GetServiceHealth(ctx context.Context, serviceName string) (*Report, error)
	GetLiveness(ctx context.Context) (*LivenessResponse, error)
	GetReadiness(ctx context.Context) (*ReadinessResponse, error)
	GetStatus(ctx context.Context) (*StatusResponse, error)
}

type HandlerOption func(*HTTPHandler)

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) HandlerOption {
	return func(hh *HTTPHandler) {
		hh.metrics = h
	}
}

type HTTPHandler struct {
	server  Server
	metrics http.Handler
}

func NewHTTPHandler(server Server, opts ...HandlerOption) *HTTPHandler {
	h := &HTTPHandler{
		server: server,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleGetHealth)
	r.Get("/health/live", h.handleGetLiveness)
	r.Get("/health/ready", h.handleGetReadiness)
	r.Get("/status", h.handleGetStatus)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}
}

func (h *HTTPHandler) handleGetHealth(w http.ResponseWriter, r *http.Request) {
	var (
		resp *Report
		err  error
	)

	query := r.URL.Query()
	if query.Has(ServiceQueryParam) {
		resp, err = h.server.GetServiceHealth(r.Context(), query.Get(ServiceQueryParam))
	} else {
		resp, err = h.server.GetHealth(r.Context())
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	status := http.StatusOK
	if resp.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, resp)
}

func (h *HTTPHandler) handleGetLiveness(w http.ResponseWriter, r *http.Request) {
	resp, err := h.server.GetLiveness(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	status := http.StatusOK
	if !resp.Alive {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, resp)
}

func (h *HTTPHandler) handleGetReadiness(w http.ResponseWriter, r *http.Request) {
	resp, err := h.server.GetReadiness(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, resp)
}

func (h *HTTPHandler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := h.server.GetStatus(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	})
}

// Service is the Server backed by an Evaluator. Exported fields describe the
// running build and may be set after NewService returns.
type Service struct {
	Version     string
	GitCommit   string
	BuildTime   *time.Time
	Environment string
	Hostname    string
	InstanceID  string
	CheckFunc   func(ctx context.Context) map[string]string

	evaluator *Evaluator
	metrics   *Metrics
	logger    *slog.Logger

	lastHealthy atomic.Int32
	lastReady   atomic.Int32
}

type ServiceOption func(*Service)

func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(evaluator *Evaluator, version, environment string, opts ...ServiceOption) *Service {
	s := &Service{
		Version:     version,
		Environment: environment,
		InstanceID:  uuid.NewString(),
		evaluator:   evaluator,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) GetHealth(ctx context.Context) (*Report, error) {
	report := s.evaluator.HealthStatus()
	s.observe(ScopeDefault, report)
	if changed(&s.lastHealthy, report.Healthy()) {
		if report.Healthy() {
			s.logger.Info("service healthy", "service", report.Service)
		} else {
			s.logger.Warn("service unhealthy", "service", report.Service)
		}
	}
	return &report, nil
}

func (s *Service) GetServiceHealth(ctx context.Context, serviceName string) (*Report, error) {
	// Caller-supplied names say nothing about this service's own state, so
	// they are counted separately and never move the transition log.
	report := s.evaluator.HealthStatusFor(serviceName)
	s.observe(ScopeExplicit, report)
	return &report, nil
}

func (s *Service) GetLiveness(ctx context.Context) (*LivenessResponse, error) {
	return &LivenessResponse{
		Alive:     true,
		Timestamp: s.evaluator.Clock().Now(),
	}, nil
}

func (s *Service) GetReadiness(ctx context.Context) (*ReadinessResponse, error) {
	ready, uptime := s.evaluator.Readiness()
	checks := make(map[string]string)

	if s.CheckFunc != nil {
		checks = s.CheckFunc(ctx)
		for _, status := range checks {
			if status != "connected" && status != "available" && status != "reachable" && status != "healthy" {
				ready = false
				break
			}
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveReadiness(ready, uptime)
	}
	if changed(&s.lastReady, ready) {
		if ready {
			s.logger.Info("service ready", "uptime", uptime)
		} else {
			s.logger.Warn("service not ready", "uptime", uptime, "checks", checks)
		}
	}

	return &ReadinessResponse{
		Ready:     ready,
		Timestamp: s.evaluator.Clock().Now(),
		Uptime:    uptime,
		Checks:    checks,
	}, nil
}

func (s *Service) GetStatus(ctx context.Context) (*StatusResponse, error) {
	now := s.evaluator.Clock().Now()
	uptime := s.evaluator.Uptime()

	return &StatusResponse{
		ServiceName:   s.evaluator.DefaultName(),
		Version:       s.Version,
		GitCommit:     s.GitCommit,
		BuildTime:     s.BuildTime,
		StartTime:     now.Add(-time.Duration(uptime * float64(time.Second))),
		UptimeSeconds: uptime,
		Environment:   s.Environment,
		Hostname:      s.Hostname,
		InstanceID:    s.InstanceID,
	}, nil
}

func (s *Service) observe(scope string, r Report) {
	if s.metrics != nil {
		s.metrics.ObserveReport(scope, r)
	}
}

// changed records v in last and reports whether it differs from the
// previously recorded value. The first observation counts as a change.
func changed(last *atomic.Int32, v bool) bool {
	next := int32(2)
	if v {
		next = 1
	}
	return last.Swap(next) != next
}
