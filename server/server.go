// Package server implements the WebSocket streaming server: it accepts
// client sessions, dispatches JSON control messages and binary audio chunks,
// drives the configured speech processor, and writes the JSONL metrics log.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simulstream/simulstream/config"
	"github.com/simulstream/simulstream/metrics"
	"github.com/simulstream/simulstream/processor"
)

// Server hosts streaming sessions over a single HTTP listener: WebSocket
// upgrades on /, liveness on /healthz, Prometheus metrics on /metrics.
type Server struct {
	cfg     *config.Server
	procCfg *config.Processor

	metricsLog *metrics.Log
	collectors *metrics.Collectors
	sessions   *SessionList

	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// New validates the configuration, opens the metrics log, and loads the
// speech processor once to verify the configuration and record its loading
// time.
func New(cfg *config.Server, procCfg *config.Processor) (*Server, error) {
	metricsLog := metrics.Nop()
	if cfg.Metrics.Enabled {
		var err error
		metricsLog, err = metrics.Open(cfg.Metrics.Filename)
		if err != nil {
			return nil, err
		}
	}

	loadStart := time.Now()
	probe, err := processor.Build(procCfg)
	if err != nil {
		metricsLog.Close()
		return nil, fmt.Errorf("failed to build speech processor: %w", err)
	}
	probe.Clear()
	loadingTime := time.Since(loadStart).Seconds()
	slog.Info("Loaded speech processor",
		"type", procCfg.Type,
		"loadingSeconds", loadingTime)
	if err := metricsLog.AppendModelLoadingTime(loadingTime); err != nil {
		slog.Error("Failed to record model loading time", "error", err)
	}

	s := &Server{
		cfg:        cfg,
		procCfg:    procCfg,
		metricsLog: metricsLog,
		collectors: metrics.NewCollectors(),
		sessions:   NewSessionList(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // the demo page is served from a different port
			},
		},
	}
	return s, nil
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleWebSocket)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.httpServer = &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: router,
	}

	slog.Info("Serving websocket server", "addr", s.cfg.Addr())
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Debug("Server shutting down")
		return s.Stop(context.Background())
	}
}

// Stop gracefully shuts down the listener and closes the metrics log.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop HTTP server: %w", err)
		}
	}
	if err := s.metricsLog.Close(); err != nil {
		return fmt.Errorf("failed to close metrics log: %w", err)
	}
	return nil
}
