package processor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/simulstream/simulstream/audio"
	"github.com/simulstream/simulstream/config"
)

// APIKeyEnv is consulted when the processor config carries no api_key.
const APIKeyEnv = "SIMULSTREAM_OPENAI_API_KEY"

func init() {
	Register("openai", newOpenAI)
}

// openAIProcessor sends the sliding audio window to the OpenAI audio API on
// every increment. With task "translate" it produces English translations,
// otherwise source-language transcriptions.
type openAIProcessor struct {
	client     *openai.Client
	model      string
	task       string
	windowLen  int
	history    []float32
	diff       differ
	sourceLang string
}

func newOpenAI(cfg *config.Processor) (SpeechProcessor, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("openai processor requires api_key or %s", APIKeyEnv)
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &openAIProcessor{
		client:    openai.NewClient(key),
		model:     model,
		task:      cfg.Task,
		windowLen: int(cfg.WindowLenSeconds * audio.ModelSampleRate),
		diff:      newDiffer(cfg.MatchingThreshold),
	}, nil
}

func (p *openAIProcessor) ProcessChunk(ctx context.Context, waveform []float32) (IncrementalOutput, error) {
	p.history = append(p.history, waveform...)
	if len(p.history) > p.windowLen {
		p.history = p.history[len(p.history)-p.windowLen:]
	}

	data, err := audio.EncodeWAV(p.history, audio.ModelSampleRate)
	if err != nil {
		return IncrementalOutput{}, fmt.Errorf("failed to encode window: %w", err)
	}

	req := openai.AudioRequest{
		Model:    p.model,
		FilePath: "window.wav",
		Reader:   bytes.NewReader(data),
		Language: p.sourceLang,
	}

	var text string
	if p.task == "translate" {
		resp, err := p.client.CreateTranslation(ctx, req)
		if err != nil {
			return IncrementalOutput{}, fmt.Errorf("translation request failed: %w", err)
		}
		text = resp.Text
	} else {
		resp, err := p.client.CreateTranscription(ctx, req)
		if err != nil {
			return IncrementalOutput{}, fmt.Errorf("transcription request failed: %w", err)
		}
		text = resp.Text
	}

	text = strings.TrimSpace(text)
	return p.diff.next(strings.Fields(text), text), nil
}

func (p *openAIProcessor) SetSourceLanguage(lang string) error {
	p.sourceLang = lang
	return nil
}

func (p *openAIProcessor) SetTargetLanguage(lang string) error {
	if p.task == "translate" && lang != "" && lang != "en" {
		return fmt.Errorf("openai translation only targets English, got %q", lang)
	}
	return nil
}

func (p *openAIProcessor) EndOfStream(ctx context.Context) (IncrementalOutput, error) {
	return IncrementalOutput{}, nil
}

func (p *openAIProcessor) Clear() {
	p.history = nil
	p.diff.clear()
	p.sourceLang = ""
}
