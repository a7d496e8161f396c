package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/simulstream/simulstream/config"
)

// The demo server hosts the browser demo page and tells it where the
// streaming server lives through /config.json.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	configPath := flag.String("config", "", "Path to demo configuration YAML")
	port := flag.String("p", "8000", "Port to serve the demo page on")
	directory := flag.String("directory", "static", "Directory with the demo page assets")
	flag.Parse()

	if *configPath == "" {
		slog.Error("--config must be provided")
		flag.Usage()
		os.Exit(1)
	}
	cfg, err := config.LoadDemo(*configPath)
	if err != nil {
		slog.Error("Failed to load demo config", "error", err)
		os.Exit(1)
	}

	router := mux.NewRouter()
	router.HandleFunc("/config.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(map[string]any{
			"websocket_uri": cfg.WebSocketURI,
			"source_langs":  cfg.SourceLangs,
			"target_langs":  cfg.TargetLangs,
		})
		if err != nil {
			slog.Error("Failed to write demo config", "error", err)
		}
	}).Methods("GET")
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(*directory)))

	httpServer := &http.Server{
		Addr:    ":" + *port,
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Debug("Received shutdown signal")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Serving demo page", "addr", httpServer.Addr, "directory", *directory)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		slog.Error("Demo server failed", "error", err)
		os.Exit(1)
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to stop demo server", "error", err)
		}
	}
}
