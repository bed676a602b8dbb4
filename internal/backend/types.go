package backend

import (
	"context"
	"path/filepath"
	"time"

	"rfamscan/internal/search"
)

// Pair is one (model, sequence file) unit of work
type Pair struct {
	ID           string // Name, qualified by project in multi mode
	Name         string // <family>_<sequence stem>
	Family       string // model family accession
	Project      string // empty in flat mode
	Method       search.Method
	ModelPath    string
	SequencePath string
	OutputDir    string
}

// OutputPrefix is the path of the pair's results without extension
func (p Pair) OutputPrefix() string {
	return filepath.Join(p.OutputDir, p.Name)
}

// Result records the outcome of dispatching one pair
type Result struct {
	PairID   string        `json:"pair_id"`
	Family   string        `json:"family"`
	Project  string        `json:"project,omitempty"`
	Sequence string        `json:"sequence"`
	Output   string        `json:"output"`
	Backend  string        `json:"backend"`
	Command  string        `json:"command"`
	Script   string        `json:"script,omitempty"`
	ExitCode int           `json:"exit_code"`
	JobID    string        `json:"job_id,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the dispatch did not succeed
func (r Result) Failed() bool {
	return r.Error != ""
}

// Backend dispatches pairs. Dispatch never returns an error: failures are
// recorded in the Result so the batch can carry on.
type Backend interface {
	Name() string
	Dispatch(ctx context.Context, p Pair) Result
}

func newResult(name string, p Pair) Result {
	return Result{
		PairID:   p.ID,
		Family:   p.Family,
		Project:  p.Project,
		Sequence: p.SequencePath,
		Output:   p.OutputPrefix() + ".out",
		Backend:  name,
	}
}
