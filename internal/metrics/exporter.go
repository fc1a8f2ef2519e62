package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-modlogger/internal/logging"
)

// HealthSource reports per-component liveness, e.g. the watchdog.
type HealthSource interface {
	GetStatus() map[string]bool
}

// AdminServer exposes /metrics and /healthz for operators.
type AdminServer struct {
	server *http.Server
}

func NewRouter(m *Metrics, health HealthSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if reg := m.Registry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		status := map[string]bool{}
		if health != nil {
			status = health.GetStatus()
		}

		code := http.StatusOK
		for _, ok := range status {
			if !ok {
				code = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"healthy":    code == http.StatusOK,
			"components": status,
		})
	})

	return r
}

func NewAdminServer(addr string, m *Metrics, health HealthSource) *AdminServer {
	return &AdminServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(m, health),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *AdminServer) Start() {
	go func() {
		logging.Info("Admin server listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Admin server stopped: %v", err)
		}
	}()
}

func (s *AdminServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
