// Package opsserver serves the operational HTTP endpoints: service info,
// health and Prometheus metrics.
package opsserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gomida/gamebot/core/buildinfo"
	"github.com/gomida/gamebot/core/logger"
)

const (
	component = "ops"

	readHeaderTimeout = 5 * time.Second
	checkTimeout      = 3 * time.Second
)

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

// Options configures Server.
type Options struct {
	Listen  string
	Service string
}

// Server is the ops HTTP listener. Extra application routes can be mounted on
// Router before Start.
type Server struct {
	opts   Options
	router *mux.Router
	srv    *http.Server

	mu     sync.RWMutex
	checks map[string]Check
}

// New builds a Server with the default routes.
func New(opts Options) *Server {
	s := &Server{
		opts:   opts,
		router: mux.NewRouter(),
		checks: make(map[string]Check),
	}
	s.router.Use(s.logRequests)
	s.router.HandleFunc("/", s.handleInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return s
}

// Router exposes the mux for additional routes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// AddCheck registers a named health check. A later check with the same name
// replaces the earlier one.
func (s *Server) AddCheck(name string, c Check) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = c
}

// Start listens in the background. It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	logger.Info(ctx, component, "ops.listen",
		slog.String("status", "ok"),
		slog.String("listen", ln.Addr().String()),
	)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), component, "ops.serve",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

type infoResponse struct {
	Service string         `json:"service"`
	Build   buildinfo.Info `json:"build"`
	Status  string         `json:"status"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, infoResponse{
		Service: s.opts.Service,
		Build:   buildinfo.Current(),
		Status:  "running",
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	checks := make(map[string]Check, len(s.checks))
	for name, c := range s.checks {
		checks[name] = c
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	code := http.StatusOK
	for name, check := range checks {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(checks))
		}
		if err := check(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	WriteJSON(w, code, resp)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug(r.Context(), component, "ops.request",
			slog.String("status", "ok"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("http_code", rec.status),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
