package offline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulstream/simulstream/audio"
	"github.com/simulstream/simulstream/config"
	"github.com/simulstream/simulstream/metrics"
)

func TestWatcherProcessesNewFiles(t *testing.T) {
	dir := t.TempDir()
	runner, err := NewRunner(&config.Processor{Type: "counting"}, 1, metrics.Nop(), "", "")
	require.NoError(t, err)

	watcher, err := NewWatcher(runner, dir)
	require.NoError(t, err)

	type result struct{ path, transcript string }
	results := make(chan result, 1)
	watcher.OnTranscript = func(path, transcript string) {
		results <- result{path, transcript}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, watcher.Run(ctx))
	}()

	samples := make([]float32, audio.ModelSampleRate)
	data, err := audio.EncodeWAV(samples, audio.ModelSampleRate)
	require.NoError(t, err)
	path := filepath.Join(dir, "incoming.wav")
	require.NoError(t, os.WriteFile(path, data, 0644))

	select {
	case got := <-results:
		assert.Equal(t, path, got.path)
		assert.NotEmpty(t, got.transcript)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the watcher to process the file")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the watcher to stop")
	}
}

func TestWatcherRejectsMissingDirectory(t *testing.T) {
	runner := &Runner{}
	_, err := NewWatcher(runner, filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}
