package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/simulstream/simulstream/client"
	"github.com/simulstream/simulstream/config"
	"github.com/simulstream/simulstream/metrics"
	"github.com/simulstream/simulstream/offline"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	processorConfig := flag.String("speech-processor-config", "", "Path to speech processor configuration YAML")
	wavListFile := flag.String("wav-list-file", "", "File listing WAV paths to process, one per line")
	watchDir := flag.String("watch-dir", "", "Directory to watch for new WAV files")
	metricsLogFile := flag.String("metrics-log-file", "", "JSONL metrics log output path")
	srcLang := flag.String("src-lang", "", "Source language code")
	tgtLang := flag.String("tgt-lang", "", "Target language code")
	freqSeconds := flag.Float64("speech-processing-frequency", 1, "Seconds of audio per processing increment")
	flag.Parse()

	if *processorConfig == "" {
		slog.Error("--speech-processor-config must be provided")
		flag.Usage()
		os.Exit(1)
	}
	if (*wavListFile == "") == (*watchDir == "") {
		slog.Error("Exactly one of --wav-list-file and --watch-dir must be provided")
		flag.Usage()
		os.Exit(1)
	}

	procCfg, err := config.LoadProcessor(*processorConfig)
	if err != nil {
		slog.Error("Failed to load speech processor config", "error", err)
		os.Exit(1)
	}

	metricsLog := metrics.Nop()
	if *metricsLogFile != "" {
		metricsLog, err = metrics.Open(*metricsLogFile)
		if err != nil {
			slog.Error("Failed to open metrics log", "error", err)
			os.Exit(1)
		}
	}
	defer func() {
		if err := metricsLog.Close(); err != nil {
			slog.Error("Failed to close metrics log", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Debug("Received shutdown signal")
		cancel()
	}()

	runner, err := offline.NewRunner(procCfg, *freqSeconds, metricsLog, *srcLang, *tgtLang)
	if err != nil {
		slog.Error("Failed to initialize runner", "error", err)
		os.Exit(1)
	}

	if *watchDir != "" {
		watcher, err := offline.NewWatcher(runner, *watchDir)
		if err != nil {
			slog.Error("Failed to initialize watcher", "error", err)
			os.Exit(1)
		}
		watcher.OnTranscript = func(path, transcript string) {
			fmt.Printf("%s\t%s\n", path, transcript)
		}
		if err := watcher.Run(ctx); err != nil {
			slog.Error("Watcher failed", "error", err)
			os.Exit(1)
		}
		return
	}

	paths, err := client.ReadWAVList(*wavListFile)
	if err != nil {
		slog.Error("Failed to read wav list", "error", err)
		os.Exit(1)
	}
	for _, path := range paths {
		transcript, err := runner.ProcessFile(ctx, path)
		if err != nil {
			slog.Error("Failed to process audio file", "error", err, "file", path)
			os.Exit(1)
		}
		fmt.Printf("%s\t%s\n", path, transcript)
	}
}
