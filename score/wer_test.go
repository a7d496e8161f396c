package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b []string
		want int
	}{
		{nil, nil, 0},
		{[]string{"a"}, nil, 1},
		{nil, []string{"a", "b"}, 2},
		{[]string{"a", "b", "c"}, []string{"a", "b", "c"}, 0},
		{[]string{"a", "b", "c"}, []string{"a", "x", "c"}, 1},
		{[]string{"kitten"}, []string{"sitting"}, 1},
		{[]string{"the", "cat", "sat"}, []string{"a", "cat", "sat", "down"}, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, editDistance(tc.a, tc.b), "distance(%v, %v)", tc.a, tc.b)
	}
}

func TestWERScorer(t *testing.T) {
	run := readRun(t, `{"id": "s1", "total_audio_processed": 1.0, "computation_time": 0.1, "generated_tokens": ["the", "cat", "sat"], "deleted_tokens": []}
{"id": "s2", "total_audio_processed": 1.0, "computation_time": 0.1, "generated_tokens": ["hello", "word"], "deleted_tokens": []}
`)
	scorer, err := Build("wer", nil)
	require.NoError(t, err)
	assert.True(t, scorer.RequiresReference())

	result, err := scorer.Score(Inputs{
		Run:        run,
		References: []string{"the cat sat", "hello world"},
	})
	require.NoError(t, err)

	// One substitution over five reference words.
	assert.Equal(t, 1.0, result["errors"])
	assert.Equal(t, 5.0, result["ref_tokens"])
	assert.InDelta(t, 0.2, result["wer"], 1e-9)
}

func TestWERScorerHonorsRetractions(t *testing.T) {
	run := readRun(t, `{"id": "s1", "total_audio_processed": 1.0, "computation_time": 0.1, "generated_tokens": ["hello", "word"], "deleted_tokens": []}
{"id": "s1", "total_audio_processed": 2.0, "computation_time": 0.1, "generated_tokens": ["world"], "deleted_tokens": ["word"]}
`)
	scorer, err := Build("wer", nil)
	require.NoError(t, err)

	result, err := scorer.Score(Inputs{Run: run, References: []string{"hello world"}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result["wer"])
}

func TestWERScorerCharUnit(t *testing.T) {
	run := readRun(t, `{"id": "s1", "total_audio_processed": 1.0, "computation_time": 0.1, "generated_tokens": ["abcd"], "deleted_tokens": []}
`)
	scorer, err := Build("wer", &EvalConfig{LatencyUnit: "char"})
	require.NoError(t, err)

	result, err := scorer.Score(Inputs{Run: run, References: []string{"abce"}})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, result["wer"], 1e-9)
}

func TestWERScorerLineCountMismatch(t *testing.T) {
	run := readRun(t, `{"id": "s1", "total_audio_processed": 1.0, "computation_time": 0.1, "generated_tokens": ["x"], "deleted_tokens": []}
`)
	scorer, err := Build("wer", nil)
	require.NoError(t, err)
	_, err = scorer.Score(Inputs{Run: run, References: []string{"a", "b"}})
	assert.Error(t, err)
}
