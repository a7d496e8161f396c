package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulstream/simulstream/metrics"
)

func TestLaggingScorer(t *testing.T) {
	def := writeFile(t, "def.yaml", `
- reference: "one two three four five"
  wav: /data/a.wav
  duration: 10
`)
	run := readRun(t, `{"model_loading_time": 1.0}
{"id": "s1", "metadata": {"audio": "/somewhere/else/a.wav"}}
{"id": "s1", "total_audio_processed": 2.0, "computation_time": 1.0, "generated_tokens": ["one", "two"], "deleted_tokens": []}
{"id": "s1", "total_audio_processed": 4.0, "computation_time": 1.0, "generated_tokens": ["three"], "deleted_tokens": []}
{"id": "s1", "total_audio_processed": 10.0, "computation_time": 1.0, "generated_tokens": ["four"], "deleted_tokens": []}
`)

	scorer, err := Build("lagging", &EvalConfig{LatencyUnit: "word", AudioDefinition: def})
	require.NoError(t, err)
	assert.False(t, scorer.RequiresReference())

	result, err := scorer.Score(Inputs{Run: run})
	require.NoError(t, err)

	// Five reference words over ten seconds: the oracle emits one word every
	// two seconds. Delays are 2, 2, 4, 10 ideal and 3, 3, 6, 13 with
	// computation time.
	assert.Equal(t, 1.0, result["sessions_scored"])
	assert.InDelta(t, 1.5, result["ideal_latency"], 1e-9)
	assert.InDelta(t, 3.25, result["computational_aware_latency"], 1e-9)
}

func TestLaggingScorerCutsOffAfterAudioEnd(t *testing.T) {
	delays := []metrics.TokenDelay{
		{Ideal: 1}, {Ideal: 6}, {Ideal: 7},
	}
	// The second token is already past the five-second audio, so the third
	// never contributes.
	al := averageLagging(delays, 5, 5, func(d metrics.TokenDelay) float64 { return d.Ideal })
	assert.InDelta(t, (1.0+(6.0-1.0))/2.0, al, 1e-9)
}

func TestLaggingScorerUnknownAudio(t *testing.T) {
	def := writeFile(t, "def.yaml", "- reference: x\n  wav: a.wav\n  duration: 1\n")
	run := readRun(t, `{"id": "s1", "metadata": {"audio": "unlisted.wav"}}
{"id": "s1", "total_audio_processed": 1.0, "computation_time": 0.1, "generated_tokens": ["x"], "deleted_tokens": []}
`)
	scorer, err := Build("lagging", &EvalConfig{LatencyUnit: "word", AudioDefinition: def})
	require.NoError(t, err)
	_, err = scorer.Score(Inputs{Run: run})
	assert.Error(t, err)
}

func TestLaggingScorerSkipsSessionsWithoutAudio(t *testing.T) {
	def := writeFile(t, "def.yaml", "- reference: x\n  wav: a.wav\n  duration: 1\n")
	run := readRun(t, `{"id": "s1", "total_audio_processed": 1.0, "computation_time": 0.1, "generated_tokens": ["x"], "deleted_tokens": []}
`)
	scorer, err := Build("lagging", &EvalConfig{LatencyUnit: "word", AudioDefinition: def})
	require.NoError(t, err)
	_, err = scorer.Score(Inputs{Run: run})
	// No scoreable session is an error, not a silent zero.
	assert.Error(t, err)
}

func TestLaggingScorerRequiresAudioDefinition(t *testing.T) {
	_, err := Build("lagging", &EvalConfig{LatencyUnit: "word"})
	assert.Error(t, err)
	_, err = Build("lagging", nil)
	assert.Error(t, err)
}
