// Package metrics implements the JSONL metrics log written by the server and
// offline runner, its reader used by the evaluation tooling, and the
// Prometheus collectors exposed by the server.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Log appends one JSON object per line to a dedicated file. Evaluation runs
// expect a fresh file, so the file is opened in append mode but never
// truncated; pointing two runs at the same file contaminates the results.
type Log struct {
	mu sync.Mutex
	f  *os.File
}

// Open creates or opens the log file for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics log: %w", err)
	}
	return &Log{f: f}, nil
}

// Nop returns a disabled log whose append operations do nothing.
func Nop() *Log {
	return &Log{}
}

// Enabled reports whether records are being persisted.
func (l *Log) Enabled() bool {
	return l.f != nil
}

// AppendIncrement records one processing increment of a session.
func (l *Log) AppendIncrement(id string, audioSeconds, computationTime float64, generated, deleted []string) error {
	if generated == nil {
		generated = []string{}
	}
	if deleted == nil {
		deleted = []string{}
	}
	return l.append(map[string]any{
		"id":                    id,
		"total_audio_processed": audioSeconds,
		"computation_time":      computationTime,
		"generated_tokens":      generated,
		"deleted_tokens":        deleted,
	})
}

// AppendMetadata records client-supplied metrics metadata for a session.
func (l *Log) AppendMetadata(id string, metadata any) error {
	return l.append(map[string]any{
		"id":       id,
		"metadata": metadata,
	})
}

// AppendModelLoadingTime records the processor startup time, written once
// per run.
func (l *Log) AppendModelLoadingTime(seconds float64) error {
	return l.append(map[string]any{
		"model_loading_time": seconds,
	})
}

func (l *Log) append(record map[string]any) error {
	if l.f == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics record: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write metrics record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}
