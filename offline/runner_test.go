package offline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulstream/simulstream/audio"
	"github.com/simulstream/simulstream/config"
	"github.com/simulstream/simulstream/metrics"
	"github.com/simulstream/simulstream/processor"
)

// countingProcessor emits one word per increment so transcripts and metrics
// are fully predictable.
type countingProcessor struct {
	chunks     int
	cleared    bool
	sourceLang string
}

func (p *countingProcessor) ProcessChunk(_ context.Context, waveform []float32) (processor.IncrementalOutput, error) {
	p.chunks++
	word := fmt.Sprintf("w%d", p.chunks)
	out := processor.IncrementalOutput{NewTokens: []string{word}, NewString: word + " "}
	return out, nil
}

func (p *countingProcessor) SetSourceLanguage(lang string) error { p.sourceLang = lang; return nil }
func (p *countingProcessor) SetTargetLanguage(string) error      { return nil }
func (p *countingProcessor) EndOfStream(context.Context) (processor.IncrementalOutput, error) {
	return processor.IncrementalOutput{}, nil
}
func (p *countingProcessor) Clear() { p.cleared = true }

var lastCounting *countingProcessor

func init() {
	processor.Register("counting", func(*config.Processor) (processor.SpeechProcessor, error) {
		lastCounting = &countingProcessor{}
		return lastCounting, nil
	})
}

func writeTestWAV(t *testing.T, seconds float64) string {
	t.Helper()
	samples := make([]float32, int(seconds*audio.ModelSampleRate))
	data, err := audio.EncodeWAV(samples, audio.ModelSampleRate)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "input.wav")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRunnerProcessFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "metrics.log")
	metricsLog, err := metrics.Open(logPath)
	require.NoError(t, err)

	runner, err := NewRunner(&config.Processor{Type: "counting"}, 1, metricsLog, "en", "")
	require.NoError(t, err)

	path := writeTestWAV(t, 2.5)
	transcript, err := runner.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, metricsLog.Close())

	// 2.5 seconds at one-second increments: three chunks, three words.
	assert.Equal(t, "w1 w2 w3", transcript)
	assert.Equal(t, "en", lastCounting.sourceLang)
	assert.True(t, lastCounting.cleared)

	run, err := metrics.ReadRun(logPath)
	require.NoError(t, err)
	assert.Len(t, run.ModelLoadingTimes, 1)

	id := filepath.Base(path)
	require.Contains(t, run.Sessions, id)
	session := run.Sessions[id]
	assert.Equal(t, map[string]any{"audio": path}, session.Metadata)
	require.Len(t, session.Increments, 3)
	assert.Equal(t, 1.0, session.Increments[0].AudioSeconds)
	assert.Equal(t, 2.5, session.Increments[2].AudioSeconds)
	assert.Equal(t, []string{"w3"}, session.Increments[2].NewTokens)
}

func TestRunnerUnknownProcessor(t *testing.T) {
	_, err := NewRunner(&config.Processor{Type: "no-such"}, 1, metrics.Nop(), "", "")
	assert.Error(t, err)
}
