package score

import (
	"fmt"
	"path/filepath"

	"github.com/simulstream/simulstream/metrics"
)

func init() {
	Register("lagging", newLagging)
}

// laggingScorer computes average lagging over the run: for each session,
// how far behind an ideal simultaneous system the emitted tokens were, both
// in audio time (ideal) and including computation time (computational-aware).
type laggingScorer struct {
	unit     string
	segments map[string][]AudioSegment
}

func newLagging(eval *EvalConfig) (Scorer, error) {
	if eval == nil || eval.AudioDefinition == "" {
		return nil, fmt.Errorf("lagging scorer needs an eval config with audio_definition")
	}
	segments, err := LoadAudioDefinition(eval.AudioDefinition)
	if err != nil {
		return nil, err
	}
	return &laggingScorer{
		unit:     eval.LatencyUnit,
		segments: GroupByAudio(segments),
	}, nil
}

func (s *laggingScorer) RequiresReference() bool { return false }

func (s *laggingScorer) Score(in Inputs) (Result, error) {
	if in.Run == nil {
		return nil, fmt.Errorf("lagging scorer needs a metrics log")
	}

	var (
		idealSum float64
		compSum  float64
		scored   int
	)
	for _, id := range in.Run.SessionIDs() {
		session := in.Run.Sessions[id]
		segments, err := s.segmentsFor(session)
		if err != nil {
			return nil, err
		}
		if segments == nil {
			continue
		}

		var refDuration float64
		var refTokens int
		for _, seg := range segments {
			refDuration += seg.Duration
			refTokens += len(Tokenize(seg.Reference, s.unit))
		}
		if refDuration <= 0 || refTokens == 0 {
			continue
		}

		delays := session.TokenDelays()
		if len(delays) == 0 {
			continue
		}
		idealSum += averageLagging(delays, refDuration, refTokens, func(d metrics.TokenDelay) float64 {
			return d.Ideal
		})
		compSum += averageLagging(delays, refDuration, refTokens, func(d metrics.TokenDelay) float64 {
			return d.Computational
		})
		scored++
	}

	if scored == 0 {
		return nil, fmt.Errorf("no session matched an audio definition entry")
	}
	return Result{
		"sessions_scored":             float64(scored),
		"ideal_latency":               idealSum / float64(scored),
		"computational_aware_latency": compSum / float64(scored),
	}, nil
}

// segmentsFor resolves the audio-definition entries for a session through
// its metadata record. Sessions without an audio path are skipped.
func (s *laggingScorer) segmentsFor(session *metrics.Session) ([]AudioSegment, error) {
	meta, ok := session.Metadata.(map[string]any)
	if !ok {
		return nil, nil
	}
	path, ok := meta["audio"].(string)
	if !ok || path == "" {
		return nil, nil
	}
	segments, ok := s.segments[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("session %s refers to %s, which is not in the audio definition", session.ID, path)
	}
	return segments, nil
}

// averageLagging implements the AL metric: delays are averaged against an
// oracle that emits the reference tokens evenly over the audio, cutting off
// at the first token emitted after the audio ends.
func averageLagging(delays []metrics.TokenDelay, refDuration float64, refTokens int, delay func(metrics.TokenDelay) float64) float64 {
	rate := float64(refTokens) / refDuration

	cutoff := len(delays)
	for i, d := range delays {
		if delay(d) >= refDuration {
			cutoff = i + 1
			break
		}
	}

	var sum float64
	for i := 0; i < cutoff; i++ {
		sum += delay(delays[i]) - float64(i)/rate
	}
	return sum / float64(cutoff)
}
