package processor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/simulstream/simulstream/audio"
	"github.com/simulstream/simulstream/config"
)

func init() {
	Register("whisper", newWhisper)
}

// whisperProcessor re-transcribes a sliding window of session audio with an
// external whisper executable on every increment and reduces the overlapping
// transcriptions to incremental output through the differ.
type whisperProcessor struct {
	whisperPath  string
	whisperModel string
	windowLen    int // samples
	history      []float32
	diff         differ
	sourceLang   string
}

func newWhisper(cfg *config.Processor) (SpeechProcessor, error) {
	if cfg.WhisperPath == "" {
		return nil, fmt.Errorf("whisper processor requires whisper_path")
	}
	if cfg.WhisperModel == "" {
		return nil, fmt.Errorf("whisper processor requires whisper_model")
	}
	return &whisperProcessor{
		whisperPath:  cfg.WhisperPath,
		whisperModel: cfg.WhisperModel,
		windowLen:    int(cfg.WindowLenSeconds * audio.ModelSampleRate),
		diff:         newDiffer(cfg.MatchingThreshold),
	}, nil
}

func (p *whisperProcessor) ProcessChunk(ctx context.Context, waveform []float32) (IncrementalOutput, error) {
	p.history = append(p.history, waveform...)
	if len(p.history) > p.windowLen {
		p.history = p.history[len(p.history)-p.windowLen:]
	}

	text, err := p.transcribe(ctx)
	if err != nil {
		return IncrementalOutput{}, err
	}
	return p.diff.next(strings.Fields(text), text), nil
}

func (p *whisperProcessor) transcribe(ctx context.Context) (string, error) {
	data, err := audio.EncodeWAV(p.history, audio.ModelSampleRate)
	if err != nil {
		return "", fmt.Errorf("failed to encode window: %w", err)
	}

	tmp, err := os.CreateTemp("", "simulstream-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp audio file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp audio file: %w", err)
	}
	tmp.Close()

	args := []string{"--model", p.whisperModel}
	if p.sourceLang != "" {
		args = append(args, "--language", p.sourceLang)
	}
	args = append(args, tmp.Name())

	cmd := exec.CommandContext(ctx, p.whisperPath, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("whisper execution failed (%s): %w",
				strings.TrimSpace(string(exitErr.Stderr)), err)
		}
		return "", fmt.Errorf("whisper execution failed: %w", err)
	}
	return extractTranscript(string(output)), nil
}

func (p *whisperProcessor) SetSourceLanguage(lang string) error {
	p.sourceLang = lang
	return nil
}

func (p *whisperProcessor) SetTargetLanguage(lang string) error {
	if lang != "" && lang != p.sourceLang {
		return fmt.Errorf("whisper processor only transcribes; target language %q unsupported", lang)
	}
	return nil
}

func (p *whisperProcessor) EndOfStream(ctx context.Context) (IncrementalOutput, error) {
	// The session loop flushes remaining audio through ProcessChunk before
	// calling this, so there is nothing pending here.
	return IncrementalOutput{}, nil
}

func (p *whisperProcessor) Clear() {
	p.history = nil
	p.diff.clear()
	p.sourceLang = ""
}

// extractTranscript flattens whisper's subtitle-style output into one line,
// dropping timestamp prefixes and blank-audio markers. Timestamps must not
// reach the differ: they shift on every re-transcription and would defeat the
// substring matching.
func extractTranscript(output string) string {
	var builder strings.Builder
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			if end := strings.Index(line, "]"); end >= 0 {
				line = strings.TrimSpace(line[end+1:])
			}
		}
		if line == "" || strings.Contains(line, "[BLANK_AUDIO]") {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(line)
	}
	return strings.TrimSpace(builder.String())
}
