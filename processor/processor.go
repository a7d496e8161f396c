// Package processor defines the pluggable speech-processing component that
// turns streamed audio into incremental transcript or translation output.
// Implementations are registered under a name and selected at startup by the
// `type` key of the speech-processor configuration.
package processor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/simulstream/simulstream/config"
	"github.com/simulstream/simulstream/protocol"
)

// IncrementalOutput is the result of one processing increment: the text that
// became valid with this increment and the previously emitted text it
// invalidates.
type IncrementalOutput struct {
	NewTokens     []string
	NewString     string
	DeletedTokens []string
	DeletedString string
}

// Event converts the output to its wire representation.
func (o IncrementalOutput) Event() protocol.Event {
	return protocol.Event{New: o.NewString, Deleted: o.DeletedString}
}

// SpeechProcessor consumes fixed-rate mono audio increments and produces
// zero-or-more output events. Implementations keep per-session state and are
// not safe for concurrent use; each session owns one instance.
type SpeechProcessor interface {
	// ProcessChunk consumes the next audio increment, sampled at
	// audio.ModelSampleRate, and returns the incremental output.
	ProcessChunk(ctx context.Context, waveform []float32) (IncrementalOutput, error)

	// SetSourceLanguage and SetTargetLanguage configure the session
	// languages; they may be called before any audio arrives.
	SetSourceLanguage(lang string) error
	SetTargetLanguage(lang string) error

	// EndOfStream finalizes the session and returns any output still
	// pending inside the processor.
	EndOfStream(ctx context.Context) (IncrementalOutput, error)

	// Clear resets all per-session state so the instance can be reused.
	Clear()
}

// Factory builds a processor from its configuration.
type Factory func(cfg *config.Processor) (SpeechProcessor, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a factory available under the given name. It panics when
// the name is already taken, as that is a programming error.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("processor: duplicate registration of %q", name))
	}
	registry[name] = factory
}

// Build looks up the factory named by cfg.Type and constructs a processor.
func Build(cfg *config.Processor) (SpeechProcessor, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown speech processor %q (registered: %s)",
			cfg.Type, strings.Join(Names(), ", "))
	}
	return factory(cfg)
}

// Names returns the registered processor names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
