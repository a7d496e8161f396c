// Package offline runs a speech processor over WAV files without a server,
// producing the same JSONL metrics log as a live session plus one transcript
// per audio file.
package offline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/simulstream/simulstream/audio"
	"github.com/simulstream/simulstream/config"
	"github.com/simulstream/simulstream/metrics"
	"github.com/simulstream/simulstream/processor"
)

// Runner drives one speech processor through files sequentially. It is not
// safe for concurrent ProcessFile calls; the watcher serializes through a
// queue instead.
type Runner struct {
	proc        processor.SpeechProcessor
	freqSeconds float64
	metricsLog  *metrics.Log
	sourceLang  string
	targetLang  string
}

// NewRunner builds the configured processor and prepares the metrics log.
// freqSeconds mirrors the server's speech_processing_frequency.
func NewRunner(procCfg *config.Processor, freqSeconds float64, metricsLog *metrics.Log, sourceLang, targetLang string) (*Runner, error) {
	loadStart := time.Now()
	proc, err := processor.Build(procCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build speech processor: %w", err)
	}
	loadingTime := time.Since(loadStart).Seconds()
	if err := metricsLog.AppendModelLoadingTime(loadingTime); err != nil {
		return nil, err
	}
	if freqSeconds <= 0 {
		freqSeconds = 1
	}
	return &Runner{
		proc:        proc,
		freqSeconds: freqSeconds,
		metricsLog:  metricsLog,
		sourceLang:  sourceLang,
		targetLang:  targetLang,
	}, nil
}

// ProcessFile streams one WAV file through the processor in fixed-duration
// increments and returns the final transcript. The file's base name is the
// session ID in the metrics log.
func (r *Runner) ProcessFile(ctx context.Context, path string) (string, error) {
	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		return "", err
	}
	if rate != audio.ModelSampleRate {
		samples = audio.Resample(samples, rate, audio.ModelSampleRate)
	}

	id := filepath.Base(path)
	if err := r.metricsLog.AppendMetadata(id, map[string]any{"audio": path}); err != nil {
		return "", err
	}

	if r.sourceLang != "" {
		if err := r.proc.SetSourceLanguage(r.sourceLang); err != nil {
			return "", err
		}
	}
	if r.targetLang != "" {
		if err := r.proc.SetTargetLanguage(r.targetLang); err != nil {
			return "", err
		}
	}

	chunkLen := int(r.freqSeconds * audio.ModelSampleRate)
	var transcript []rune
	var processedSeconds float64
	for start := 0; start < len(samples); start += chunkLen {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		end := start + chunkLen
		if end > len(samples) {
			end = len(samples)
		}
		chunk := samples[start:end]
		processedSeconds += float64(len(chunk)) / audio.ModelSampleRate

		computeStart := time.Now()
		out, err := r.proc.ProcessChunk(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("processing %s at %.1fs: %w", path, processedSeconds, err)
		}
		computation := time.Since(computeStart).Seconds()

		if err := r.metricsLog.AppendIncrement(
			id, processedSeconds, computation, out.NewTokens, out.DeletedTokens); err != nil {
			return "", err
		}
		transcript = applyIncrement(transcript, out)
	}

	if out, err := r.proc.EndOfStream(ctx); err == nil {
		transcript = applyIncrement(transcript, out)
	} else {
		slog.Error("Processor end of stream failed", "error", err, "file", path)
	}
	r.proc.Clear()
	return strings.TrimSpace(string(transcript)), nil
}

func applyIncrement(text []rune, out processor.IncrementalOutput) []rune {
	if n := len([]rune(out.DeletedString)); n > 0 && n <= len(text) {
		text = text[:len(text)-n]
	}
	return append(text, []rune(out.NewString)...)
}
