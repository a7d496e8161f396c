package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/simulstream/simulstream/client"
	"github.com/simulstream/simulstream/protocol"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	uri := flag.String("uri", "ws://localhost:8765", "WebSocket server URI")
	wavListFile := flag.String("wav-list-file", "", "File listing WAV paths to stream, one per line")
	srcLang := flag.String("src-lang", "", "Source language code")
	tgtLang := flag.String("tgt-lang", "", "Target language code")
	chunkSeconds := flag.Float64("chunk-seconds", 0.5, "Duration of each audio chunk")
	realTime := flag.Bool("real-time", false, "Pace file streaming at playback speed")
	mic := flag.Bool("mic", false, "Stream from the microphone instead of files")
	deviceID := flag.Int("device", 0, "Audio input device ID (0 selects the default)")
	listDevices := flag.Bool("list-devices", false, "List available audio input devices")
	flag.Parse()

	if *listDevices {
		devices, err := client.ListDevices()
		if err != nil {
			slog.Error("Failed to list audio devices", "error", err)
			os.Exit(1)
		}
		fmt.Println("Available audio input devices:")
		for i, device := range devices {
			fmt.Printf("[%d] %s\n", i, device.Name)
			fmt.Printf("    Max Input Channels: %d\n", device.MaxInputChannels)
			fmt.Printf("    Default Sample Rate: %f\n", device.DefaultSampleRate)
			fmt.Println()
		}
		return
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

	if *mic {
		c := client.New(client.Config{
			URI:        *uri,
			SourceLang: *srcLang,
			TargetLang: *tgtLang,
		})
		err := c.StreamMicrophone(ctx, *deviceID, func(event protocol.Event) {
			printEvent(event)
		})
		if err != nil {
			slog.Error("Microphone streaming failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if *wavListFile == "" {
		slog.Error("Either --mic or --wav-list-file must be provided")
		flag.Usage()
		os.Exit(1)
	}

	paths, err := client.ReadWAVList(*wavListFile)
	if err != nil {
		slog.Error("Failed to read wav list", "error", err)
		os.Exit(1)
	}
	for _, path := range paths {
		c := client.New(client.Config{
			URI:             *uri,
			SourceLang:      *srcLang,
			TargetLang:      *tgtLang,
			ChunkSeconds:    *chunkSeconds,
			RealTime:        *realTime,
			MetricsMetadata: map[string]any{"audio": path},
		})
		slog.Info("Streaming audio file", "file", filepath.Base(path))
		result, err := c.StreamFile(ctx, path)
		if err != nil {
			slog.Error("Streaming failed", "error", err, "file", path)
			os.Exit(1)
		}
		fmt.Printf("%s\t%s\n", path, result.Transcript)
	}
}

func printEvent(event protocol.Event) {
	if event.Deleted != "" {
		fmt.Printf("\n[retracted %q]\n", event.Deleted)
	}
	if event.New != "" {
		fmt.Print(event.New)
	}
}
