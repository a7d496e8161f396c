package score

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulstream/simulstream/metrics"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readRun(t *testing.T, jsonl string) *metrics.Run {
	t.Helper()
	run, err := metrics.ReadRun(writeFile(t, "metrics.log", jsonl))
	require.NoError(t, err)
	return run
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, Tokenize("  hello   world ", "word"))
	assert.Equal(t, []string{"h", "i", "!"}, Tokenize("h i!", "char"))
	assert.Empty(t, Tokenize("   ", "word"))
}

func TestBuildUnknownScorer(t *testing.T) {
	_, err := Build("no-such-scorer", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stats")
}

func TestReservedScorersExplainThemselves(t *testing.T) {
	for _, name := range []string{"laal", "comet"} {
		_, err := Build(name, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Python")
	}
}

func TestLoadEvalConfig(t *testing.T) {
	path := writeFile(t, "eval.yaml", "latency_unit: char\naudio_definition: def.yaml\n")
	cfg, err := LoadEvalConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "char", cfg.LatencyUnit)
	assert.Equal(t, "def.yaml", cfg.AudioDefinition)
}

func TestLoadEvalConfigDefaultsUnit(t *testing.T) {
	cfg, err := LoadEvalConfig(writeFile(t, "eval.yaml", "audio_definition: def.yaml\n"))
	require.NoError(t, err)
	assert.Equal(t, "word", cfg.LatencyUnit)

	_, err = LoadEvalConfig(writeFile(t, "bad.yaml", "latency_unit: sentence\n"))
	assert.Error(t, err)
}

func TestLoadAudioDefinition(t *testing.T) {
	path := writeFile(t, "def.yaml", `
- reference: "one two three"
  wav: /data/a.wav
  offset: 0
  duration: 10
- reference: "four five"
  wav: /data/a.wav
  offset: 10
  duration: 5
`)
	segments, err := LoadAudioDefinition(path)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "one two three", segments[0].Reference)
	assert.Equal(t, 10.0, segments[1].Offset)

	groups := GroupByAudio(segments)
	require.Contains(t, groups, "a.wav")
	assert.Len(t, groups["a.wav"], 2)
}

func TestLoadAudioDefinitionRejectsBadEntries(t *testing.T) {
	_, err := LoadAudioDefinition(writeFile(t, "def.yaml", "- reference: x\n  duration: 5\n"))
	assert.Error(t, err)

	_, err = LoadAudioDefinition(writeFile(t, "def2.yaml", "- reference: x\n  wav: a.wav\n"))
	assert.Error(t, err)
}
