package metrics

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.log")
	log, err := Open(path)
	require.NoError(t, err)
	assert.True(t, log.Enabled())

	require.NoError(t, log.AppendModelLoadingTime(1.5))
	require.NoError(t, log.AppendMetadata("s1", map[string]any{"audio": "a.wav"}))
	require.NoError(t, log.AppendIncrement("s1", 1.0, 0.2, []string{"hello"}, nil))
	require.NoError(t, log.AppendIncrement("s1", 2.0, 0.3, []string{"world"}, []string{"hello"}))
	require.NoError(t, log.Close())

	run, err := ReadRun(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, run.ModelLoadingTimes)
	require.Contains(t, run.Sessions, "s1")

	session := run.Sessions["s1"]
	assert.Equal(t, map[string]any{"audio": "a.wav"}, session.Metadata)
	require.Len(t, session.Increments, 2)
	assert.Equal(t, 1.0, session.Increments[0].AudioSeconds)
	assert.Equal(t, []string{"hello"}, session.Increments[0].NewTokens)
	// nil deleted tokens are persisted as an empty list.
	assert.Equal(t, []string{}, session.Increments[0].DeletedTokens)
	assert.Equal(t, []string{"hello"}, session.Increments[1].DeletedTokens)
}

func TestNopLog(t *testing.T) {
	log := Nop()
	assert.False(t, log.Enabled())
	assert.NoError(t, log.AppendModelLoadingTime(1))
	assert.NoError(t, log.AppendMetadata("s", nil))
	assert.NoError(t, log.AppendIncrement("s", 1, 1, nil, nil))
	assert.NoError(t, log.Close())
}
