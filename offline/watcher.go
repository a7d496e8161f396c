package offline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher feeds WAV files appearing in a directory to a Runner through a
// bounded queue drained by a single worker, so files are transcribed in
// arrival order.
type Watcher struct {
	runner  *Runner
	watcher *fsnotify.Watcher
	queue   chan string
	worker  sync.WaitGroup

	// OnTranscript receives the result of each processed file.
	OnTranscript func(path, transcript string)
}

// NewWatcher creates a watcher for the given directory.
func NewWatcher(runner *Runner, dir string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{
		runner:  runner,
		watcher: fsWatcher,
		queue:   make(chan string, 100),
	}, nil
}

// Run processes events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.worker.Add(1)
	go w.drain(ctx)
	defer func() {
		close(w.queue)
		w.worker.Wait()
	}()

	slog.Info("Watching for audio files")
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op != fsnotify.Create {
				continue
			}
			name := event.Name
			if strings.HasSuffix(name, ".tmp") || !strings.HasSuffix(strings.ToLower(name), ".wav") {
				continue
			}
			select {
			case w.queue <- name:
				slog.Info("Queued new audio file", "file", filepath.Base(name))
			default:
				slog.Warn("Processing queue full, skipping file", "file", filepath.Base(name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) drain(ctx context.Context) {
	defer w.worker.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-w.queue:
			if !ok {
				return
			}
			transcript, err := w.runner.ProcessFile(ctx, path)
			if err != nil {
				slog.Error("Failed to process audio file", "error", err, "file", path)
				continue
			}
			slog.Info("Transcribed audio file", "file", filepath.Base(path))
			if w.OnTranscript != nil {
				w.OnTranscript(path, transcript)
			}
		}
	}
}
