package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/simulstream/simulstream/config"
	"github.com/simulstream/simulstream/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	serverConfig := flag.String("server-config", "", "Path to server configuration YAML")
	processorConfig := flag.String("speech-processor-config", "", "Path to speech processor configuration YAML")
	flag.Parse()

	if *serverConfig == "" || *processorConfig == "" {
		slog.Error("Both --server-config and --speech-processor-config must be provided")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadServer(*serverConfig)
	if err != nil {
		slog.Error("Failed to load server config", "error", err)
		os.Exit(1)
	}
	procCfg, err := config.LoadProcessor(*processorConfig)
	if err != nil {
		slog.Error("Failed to load speech processor config", "error", err)
		os.Exit(1)
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

	srv, err := server.New(cfg, procCfg)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}

	slog.Debug("Program exiting")
}
