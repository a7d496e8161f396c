package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds the WebSocket server configuration, loaded from the
// --server-config YAML file.
type Server struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`

	// SpeechProcessingFrequency is how many seconds of audio are buffered
	// before the speech processor is invoked.
	SpeechProcessingFrequency float64 `yaml:"speech_processing_frequency"`

	Metrics   Metrics   `yaml:"metrics"`
	Recording Recording `yaml:"recording"`
}

// Metrics controls the JSONL metrics log written by the server.
type Metrics struct {
	Enabled  bool   `yaml:"enabled"`
	Filename string `yaml:"filename"`
}

// Recording controls optional archival of received audio as WAV files.
type Recording struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Processor holds the speech-processor configuration, loaded from the
// --speech-processor-config YAML file. Type selects the registered factory;
// the remaining fields are interpreted by the selected processor.
type Processor struct {
	Type string `yaml:"type"`

	// WindowLenSeconds caps how much audio history a re-transcribing
	// processor keeps, in seconds of 16 kHz audio.
	WindowLenSeconds float64 `yaml:"window_len"`

	// MatchingThreshold is the minimum longest-match fraction for the
	// incremental output differ.
	MatchingThreshold float64 `yaml:"matching_threshold"`

	// External command processor settings.
	WhisperPath  string `yaml:"whisper_path"`
	WhisperModel string `yaml:"whisper_model"`

	// OpenAI processor settings. APIKey falls back to the
	// SIMULSTREAM_OPENAI_API_KEY environment variable.
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"`
	Task   string `yaml:"task"`
}

// Demo holds the HTTP demo server configuration.
type Demo struct {
	// WebSocketURI is handed to the browser page via /config.json.
	WebSocketURI string   `yaml:"websocket_uri"`
	SourceLangs  []string `yaml:"source_langs"`
	TargetLangs  []string `yaml:"target_langs"`
}

// LoadServer reads and validates a server configuration file.
func LoadServer(path string) (*Server, error) {
	var cfg Server
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("server config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadProcessor reads and validates a speech-processor configuration file.
func LoadProcessor(path string) (*Processor, error) {
	var cfg Processor
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("speech processor config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDemo reads and validates a demo server configuration file.
func LoadDemo(path string) (*Demo, error) {
	var cfg Demo
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.WebSocketURI == "" {
		return nil, fmt.Errorf("demo config %s: websocket_uri cannot be empty", path)
	}
	return &cfg, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the server configuration.
func (s *Server) Validate() error {
	if s.Hostname == "" {
		s.Hostname = "localhost"
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.SpeechProcessingFrequency <= 0 {
		return fmt.Errorf("speech_processing_frequency must be positive, got %f", s.SpeechProcessingFrequency)
	}
	if s.Metrics.Enabled && s.Metrics.Filename == "" {
		return fmt.Errorf("metrics.filename cannot be empty when metrics are enabled")
	}
	if s.Recording.Enabled && s.Recording.Dir == "" {
		return fmt.Errorf("recording.dir cannot be empty when recording is enabled")
	}
	return nil
}

// Validate checks the processor configuration and applies defaults.
func (p *Processor) Validate() error {
	if p.Type == "" {
		return fmt.Errorf("type cannot be empty")
	}
	if p.WindowLenSeconds < 0 {
		return fmt.Errorf("window_len cannot be negative, got %f", p.WindowLenSeconds)
	}
	if p.WindowLenSeconds == 0 {
		p.WindowLenSeconds = 30
	}
	if p.MatchingThreshold < 0 || p.MatchingThreshold >= 1 {
		return fmt.Errorf("matching_threshold must be in [0, 1), got %f", p.MatchingThreshold)
	}
	if p.MatchingThreshold == 0 {
		p.MatchingThreshold = 0.1
	}
	if p.Task == "" {
		p.Task = "transcribe"
	}
	if p.Task != "transcribe" && p.Task != "translate" {
		return fmt.Errorf("task must be 'transcribe' or 'translate', got %q", p.Task)
	}
	return nil
}

// ProcessingInterval returns the buffering interval as a time.Duration.
func (s *Server) ProcessingInterval() time.Duration {
	return time.Duration(s.SpeechProcessingFrequency * float64(time.Second))
}

// Addr returns the host:port listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}
