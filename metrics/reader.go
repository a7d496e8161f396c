package metrics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Run is the parsed content of a metrics log file.
type Run struct {
	// ModelLoadingTimes holds one entry per run header found in the file.
	// More than one entry means the file mixes several server runs.
	ModelLoadingTimes []float64

	Sessions map[string]*Session
	order    []string
}

// Session groups the records of one client session in emission order.
type Session struct {
	ID         string
	Metadata   any
	Increments []Increment
}

// Increment is one processing step of a session.
type Increment struct {
	// AudioSeconds is the total audio consumed when the increment was
	// emitted, i.e. the ideal emission time relative to stream start.
	AudioSeconds    float64
	ComputationTime float64
	NewTokens       []string
	DeletedTokens   []string
}

// TokenDelay pairs an emitted token with its delays: Ideal assumes
// processing is instantaneous, Computational adds the accumulated
// computation time of the session.
type TokenDelay struct {
	Token         string
	Ideal         float64
	Computational float64
}

type rawRecord struct {
	ID                  any      `json:"id"`
	TotalAudioProcessed *float64 `json:"total_audio_processed"`
	ComputationTime     *float64 `json:"computation_time"`
	GeneratedTokens     []string `json:"generated_tokens"`
	DeletedTokens       []string `json:"deleted_tokens"`
	Metadata            any      `json:"metadata"`
	ModelLoadingTime    *float64 `json:"model_loading_time"`
}

// ReadRun parses a metrics log file.
func ReadRun(path string) (*Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics log: %w", err)
	}
	defer f.Close()

	run := &Run{Sessions: make(map[string]*Session)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec rawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("metrics log line %d: %w", lineNo, err)
		}
		if rec.ModelLoadingTime != nil {
			run.ModelLoadingTimes = append(run.ModelLoadingTimes, *rec.ModelLoadingTime)
			continue
		}
		if rec.ID == nil {
			return nil, fmt.Errorf("metrics log line %d: record without id", lineNo)
		}
		session := run.session(fmt.Sprint(rec.ID))
		if rec.Metadata != nil {
			session.Metadata = rec.Metadata
			continue
		}
		if rec.TotalAudioProcessed == nil || rec.ComputationTime == nil {
			return nil, fmt.Errorf("metrics log line %d: incomplete increment record", lineNo)
		}
		session.Increments = append(session.Increments, Increment{
			AudioSeconds:    *rec.TotalAudioProcessed,
			ComputationTime: *rec.ComputationTime,
			NewTokens:       rec.GeneratedTokens,
			DeletedTokens:   rec.DeletedTokens,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metrics log: %w", err)
	}
	return run, nil
}

func (r *Run) session(id string) *Session {
	if s, ok := r.Sessions[id]; ok {
		return s
	}
	s := &Session{ID: id}
	r.Sessions[id] = s
	r.order = append(r.order, id)
	return s
}

// SessionIDs returns session IDs in first-seen order.
func (r *Run) SessionIDs() []string {
	return r.order
}

// Mixed reports whether the log contains records from more than one run.
func (r *Run) Mixed() bool {
	return len(r.ModelLoadingTimes) > 1
}

// TokenDelays replays the session's increments, retracting deleted tokens,
// and returns the surviving tokens with their emission delays.
func (s *Session) TokenDelays() []TokenDelay {
	var delays []TokenDelay
	var computation float64
	for _, inc := range s.Increments {
		computation += inc.ComputationTime
		if n := len(inc.DeletedTokens); n > 0 {
			if n > len(delays) {
				n = len(delays)
			}
			delays = delays[:len(delays)-n]
		}
		for _, tok := range inc.NewTokens {
			delays = append(delays, TokenDelay{
				Token:         tok,
				Ideal:         inc.AudioSeconds,
				Computational: inc.AudioSeconds + computation,
			})
		}
	}
	return delays
}

// FinalTokens returns the tokens that survive all retractions.
func (s *Session) FinalTokens() []string {
	delays := s.TokenDelays()
	tokens := make([]string, len(delays))
	for i, d := range delays {
		tokens[i] = d.Token
	}
	return tokens
}

// AudioSeconds returns the total audio consumed by the session.
func (s *Session) AudioSeconds() float64 {
	if len(s.Increments) == 0 {
		return 0
	}
	return s.Increments[len(s.Increments)-1].AudioSeconds
}

// ComputationSeconds returns the total computation time of the session.
func (s *Session) ComputationSeconds() float64 {
	var total float64
	for _, inc := range s.Increments {
		total += inc.ComputationTime
	}
	return total
}
