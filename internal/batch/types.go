package batch

import (
	"errors"
	"fmt"
	"time"

	"rfamscan/internal/backend"
	"rfamscan/internal/search"
)

// ErrDispatchFailed is wrapped by Summary.Err when any pair failed
var ErrDispatchFailed = errors.New("dispatch failed")

// Request describes one batch
type Request struct {
	ModelDir     string
	SequenceRoot string
	Multi        bool
	Method       search.Method
	OutputRoot   string // defaults to SequenceRoot
}

// Summary is the outcome of a batch
type Summary struct {
	RunID        string           `json:"run_id"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at"`
	Backend      string           `json:"backend"`
	Method       search.Method    `json:"method"`
	Multi        bool             `json:"multi"`
	ModelDir     string           `json:"model_dir"`
	SequenceRoot string           `json:"sequence_root"`
	OutputRoot   string           `json:"output_root"`
	Models       int              `json:"models"`
	Pairs        int              `json:"pairs"`
	Dispatched   int              `json:"dispatched"`
	Failed       int              `json:"failed"`
	Interrupted  bool             `json:"interrupted,omitempty"`
	Results      []backend.Result `json:"results"`
}

// Succeeded returns the number of pairs dispatched without error
func (s *Summary) Succeeded() int {
	return s.Dispatched - s.Failed
}

// Duration returns the wall time of the batch
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Err returns nil when every pair was dispatched successfully
func (s *Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d pairs", ErrDispatchFailed, s.Failed, s.Dispatched)
}

func (s *Summary) add(r backend.Result) {
	s.Results = append(s.Results, r)
	s.Dispatched++
	if r.Failed() {
		s.Failed++
	}
}
