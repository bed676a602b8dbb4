package state

import (
	"errors"
	"time"

	"rfamscan/internal/batch"
)

// Schema versions - increment when structure changes
const (
	CurrentBatchVersion = 1
	CurrentLockVersion  = 1
)

// Sentinel errors
var (
	ErrNoBatch      = errors.New("no batch recorded")
	ErrBatchRunning = errors.New("another batch is running against this output root")
)

// Record is a persisted batch summary
type Record struct {
	Version int           `json:"version"`
	Summary batch.Summary `json:"summary"`
}

// Lock marks an output root as in use by a running batch
type Lock struct {
	Version   int       `json:"version"`
	PID       int       `json:"pid"`
	Host      string    `json:"host"`
	StartedAt time.Time `json:"started_at"`
	Args      []string  `json:"args,omitempty"`
}

// LoadResult contains records and any load errors
type LoadResult struct {
	Records []*Record
	Errors  []error
}
