// Package protocol defines the JSON messages exchanged over a streaming
// session. A well-behaved client sends a configuration message before any
// audio, then streams binary chunks of little-endian 16-bit PCM, and finally
// signals end_of_stream; the server answers each processing increment with an
// Event and terminates the session output with end_of_processing.
package protocol

import "encoding/json"

// SessionConfig is a client->server text message. All keys are optional; a
// message may carry any combination of them.
type SessionConfig struct {
	SampleRate      int    `json:"sample_rate,omitempty"`
	SourceLang      string `json:"source_lang,omitempty"`
	TargetLang      string `json:"target_lang,omitempty"`
	MetricsMetadata any    `json:"metrics_metadata,omitempty"`
	EndOfStream     bool   `json:"end_of_stream,omitempty"`
}

// Event is a server->client message. Incremental outputs carry New and
// Deleted text; the final message of a session sets EndOfProcessing instead.
type Event struct {
	New             string `json:"new,omitempty"`
	Deleted         string `json:"deleted,omitempty"`
	EndOfProcessing bool   `json:"end_of_processing,omitempty"`
}

// ParseSessionConfig decodes a text message. Unknown keys are ignored, as
// clients of different versions may send extra fields.
func ParseSessionConfig(data []byte) (SessionConfig, error) {
	var cfg SessionConfig
	err := json.Unmarshal(data, &cfg)
	return cfg, err
}

// Marshal encodes an Event for transmission.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
