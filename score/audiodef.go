package score

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EvalConfig is the --eval-config YAML file.
type EvalConfig struct {
	// LatencyUnit selects "word" or "char" tokenization.
	LatencyUnit string `yaml:"latency_unit"`

	// AudioDefinition is the path to the audio-definition YAML used by
	// latency scoring.
	AudioDefinition string `yaml:"audio_definition"`
}

// AudioSegment maps one reference line to a region of a WAV file.
type AudioSegment struct {
	Reference string  `yaml:"reference"`
	WAV       string  `yaml:"wav"`
	Offset    float64 `yaml:"offset"`
	Duration  float64 `yaml:"duration"`
}

// LoadEvalConfig reads and validates an evaluation configuration.
func LoadEvalConfig(path string) (*EvalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read eval config %s: %w", path, err)
	}
	var cfg EvalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse eval config %s: %w", path, err)
	}
	if cfg.LatencyUnit == "" {
		cfg.LatencyUnit = "word"
	}
	if cfg.LatencyUnit != "word" && cfg.LatencyUnit != "char" {
		return nil, fmt.Errorf("eval config %s: latency_unit must be 'word' or 'char', got %q", path, cfg.LatencyUnit)
	}
	return &cfg, nil
}

// LoadAudioDefinition reads an audio-definition file.
func LoadAudioDefinition(path string) ([]AudioSegment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio definition %s: %w", path, err)
	}
	var segments []AudioSegment
	if err := yaml.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("failed to parse audio definition %s: %w", path, err)
	}
	for i, seg := range segments {
		if seg.WAV == "" {
			return nil, fmt.Errorf("audio definition %s: entry %d has no wav", path, i)
		}
		if seg.Duration <= 0 {
			return nil, fmt.Errorf("audio definition %s: entry %d has non-positive duration", path, i)
		}
	}
	return segments, nil
}

// GroupByAudio collects the segments of each WAV file, keyed by base name,
// preserving segment order.
func GroupByAudio(segments []AudioSegment) map[string][]AudioSegment {
	groups := make(map[string][]AudioSegment)
	for _, seg := range segments {
		key := filepath.Base(seg.WAV)
		groups[key] = append(groups[key], seg)
	}
	return groups
}
