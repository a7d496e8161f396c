package score

import "fmt"

func init() {
	Register("stats", newStats)
}

// statsScorer summarizes a run without needing references: volume, timing
// and token churn.
type statsScorer struct{}

func newStats(*EvalConfig) (Scorer, error) {
	return statsScorer{}, nil
}

func (statsScorer) RequiresReference() bool { return false }

func (statsScorer) Score(in Inputs) (Result, error) {
	if in.Run == nil {
		return nil, fmt.Errorf("stats scorer needs a metrics log")
	}

	var (
		increments      int
		audioSeconds    float64
		computeSeconds  float64
		generatedTokens int
		deletedTokens   int
		maxComputation  float64
	)
	for _, id := range in.Run.SessionIDs() {
		session := in.Run.Sessions[id]
		audioSeconds += session.AudioSeconds()
		computeSeconds += session.ComputationSeconds()
		for _, inc := range session.Increments {
			increments++
			generatedTokens += len(inc.NewTokens)
			deletedTokens += len(inc.DeletedTokens)
			if inc.ComputationTime > maxComputation {
				maxComputation = inc.ComputationTime
			}
		}
	}

	result := Result{
		"sessions":            float64(len(in.Run.Sessions)),
		"increments":          float64(increments),
		"audio_seconds":       audioSeconds,
		"computation_seconds": computeSeconds,
		"generated_tokens":    float64(generatedTokens),
		"deleted_tokens":      float64(deletedTokens),
		"max_computation":     maxComputation,
	}
	if increments > 0 {
		result["mean_computation"] = computeSeconds / float64(increments)
	}
	if audioSeconds > 0 {
		result["real_time_factor"] = computeSeconds / audioSeconds
	}
	if n := len(in.Run.ModelLoadingTimes); n > 0 {
		var total float64
		for _, t := range in.Run.ModelLoadingTimes {
			total += t
		}
		result["model_loading_time"] = total / float64(n)
	}
	return result, nil
}
