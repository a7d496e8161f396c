package score

import "fmt"

func init() {
	Register("wer", newWER)
}

// werScorer computes word (or character) error rate by aligning each
// session's final tokens against the reference line with the same index,
// micro-averaged over the whole run.
type werScorer struct {
	unit string
}

func newWER(eval *EvalConfig) (Scorer, error) {
	unit := "word"
	if eval != nil && eval.LatencyUnit != "" {
		unit = eval.LatencyUnit
	}
	return &werScorer{unit: unit}, nil
}

func (s *werScorer) RequiresReference() bool { return true }

func (s *werScorer) Score(in Inputs) (Result, error) {
	if in.Run == nil {
		return nil, fmt.Errorf("wer scorer needs a metrics log")
	}
	ids := in.Run.SessionIDs()
	if len(in.References) != len(ids) {
		return nil, fmt.Errorf("reference has %d lines but the log has %d sessions",
			len(in.References), len(ids))
	}

	var totalDistance, totalRefTokens int
	for i, id := range ids {
		reference := Tokenize(in.References[i], s.unit)
		hypothesis := normalizeUnit(in.Run.Sessions[id].FinalTokens(), s.unit)
		totalDistance += editDistance(reference, hypothesis)
		totalRefTokens += len(reference)
	}
	if totalRefTokens == 0 {
		return nil, fmt.Errorf("references contain no tokens")
	}
	return Result{
		"wer":        float64(totalDistance) / float64(totalRefTokens),
		"errors":     float64(totalDistance),
		"ref_tokens": float64(totalRefTokens),
	}, nil
}

// normalizeUnit re-tokenizes a token sequence when scoring per character,
// so word-level processors can be scored in character units.
func normalizeUnit(tokens []string, unit string) []string {
	if unit != "char" {
		return tokens
	}
	var out []string
	for _, tok := range tokens {
		out = append(out, Tokenize(tok, "char")...)
	}
	return out
}

// editDistance is the Levenshtein distance between token sequences.
func editDistance(a, b []string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
