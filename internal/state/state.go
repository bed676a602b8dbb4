package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"rfamscan/internal/batch"
	"rfamscan/internal/config"
)

const (
	lockFile   = "running.json"
	batchesDir = "batches"
)

// State abstracts batch record persistence for testing
type State interface {
	// Running-batch lock
	AcquireLock(l *Lock) error // Atomic create; takes over stale locks
	ReleaseLock() error
	LoadLock() (*Lock, error) // Returns nil, nil when unlocked

	// Batch records
	SaveBatch(s *batch.Summary) error
	LoadBatch(runID string) (*Record, error)
	LoadAllBatches() (*LoadResult, error) // Partial results + errors
	LatestBatch() (*Record, error)        // Returns ErrNoBatch if none
}

// FileState implements State using the filesystem
type FileState struct {
	stateDir string
	hostname func() (string, error)
}

// Compile-time interface check
var _ State = (*FileState)(nil)

// New creates a FileState for an output root's .rfamscan directory
func New(outputRoot string) *FileState {
	return &FileState{
		stateDir: filepath.Join(outputRoot, config.StateDir),
		hostname: os.Hostname,
	}
}

// NewWithDir creates a FileState with custom directory (for testing)
func NewWithDir(stateDir string) *FileState {
	return &FileState{stateDir: stateDir, hostname: os.Hostname}
}

// Dir returns the state directory
func (m *FileState) Dir() string {
	return m.stateDir
}

// LockPath returns the path of the lock file
func (m *FileState) LockPath() string {
	return filepath.Join(m.stateDir, lockFile)
}

// AcquireLock atomically creates the lock file, filling in the host name
// when l has none. A lock left on this host by a process that is no longer
// running is replaced. Locks from other hosts are never replaced: their
// PIDs cannot be checked from here.
func (m *FileState) AcquireLock(l *Lock) error {
	host, err := m.hostname()
	if err != nil {
		return fmt.Errorf("failed to get hostname: %w", err)
	}
	if l.Host == "" {
		l.Host = host
	}

	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	err = m.createLock(l)
	if !errors.Is(err, ErrBatchRunning) {
		return err
	}

	held, loadErr := m.LoadLock()
	if loadErr != nil || held == nil {
		return err
	}
	if held.Host != host || isProcessAlive(held.PID) {
		return fmt.Errorf("%w: held by pid %d on %s", ErrBatchRunning, held.PID, held.Host)
	}

	// Stale lock
	if err := m.ReleaseLock(); err != nil {
		return err
	}
	return m.createLock(l)
}

func (m *FileState) createLock(l *Lock) error {
	fullPath := m.LockPath()
	l.Version = CurrentLockVersion

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock: %w", err)
	}

	// O_EXCL = fail if file exists (atomic check-and-create)
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ErrBatchRunning
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to write lock: %w", err)
	}
	return nil
}

// ReleaseLock removes the lock file
func (m *FileState) ReleaseLock() error {
	err := os.Remove(m.LockPath())
	if os.IsNotExist(err) {
		return nil // Already gone
	}
	return err
}

// LoadLock returns the current lock, or nil if there is none
func (m *FileState) LoadLock() (*Lock, error) {
	var l Lock
	if err := m.loadJSON(lockFile, &l); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load lock: %w", err)
	}
	return &l, nil
}

// isProcessAlive checks if a process with the given PID is running
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 doesn't kill - just checks if process exists
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// SaveBatch records a batch summary (atomic write)
func (m *FileState) SaveBatch(s *batch.Summary) error {
	if s.RunID == "" {
		return fmt.Errorf("batch summary has no run id")
	}
	rec := &Record{Version: CurrentBatchVersion, Summary: *s}
	return m.saveJSON(filepath.Join(batchesDir, s.RunID+".json"), rec)
}

// LoadBatch loads a single batch record
func (m *FileState) LoadBatch(runID string) (*Record, error) {
	var r Record
	if err := m.loadJSON(filepath.Join(batchesDir, runID+".json"), &r); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoBatch, runID)
		}
		return nil, fmt.Errorf("failed to load batch %s: %w", runID, err)
	}
	return &r, nil
}

// LoadAllBatches loads all records oldest first, returning partial results
// on errors
func (m *FileState) LoadAllBatches() (*LoadResult, error) {
	result := &LoadResult{}

	dir := filepath.Join(m.stateDir, batchesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil // No batches yet
		}
		return nil, fmt.Errorf("failed to read batches dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		var r Record
		if err := m.loadJSON(filepath.Join(batchesDir, e.Name()), &r); err != nil {
			result.Errors = append(result.Errors,
				fmt.Errorf("failed to load %s: %w", e.Name(), err))
			continue
		}
		result.Records = append(result.Records, &r)
	}

	sort.SliceStable(result.Records, func(i, j int) bool {
		return result.Records[i].Summary.StartedAt.Before(result.Records[j].Summary.StartedAt)
	})
	return result, nil
}

// LatestBatch returns the most recently started batch
func (m *FileState) LatestBatch() (*Record, error) {
	result, err := m.LoadAllBatches()
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, ErrNoBatch
	}
	return result.Records[len(result.Records)-1], nil
}

// saveJSON writes JSON atomically using temp file + rename
func (m *FileState) saveJSON(relPath string, v interface{}) error {
	fullPath := filepath.Join(m.stateDir, relPath)

	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	// Write to temp file first
	tmpPath := fullPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename: %w", err)
	}

	return nil
}

// loadJSON reads and unmarshals JSON
func (m *FileState) loadJSON(relPath string, v interface{}) error {
	fullPath := filepath.Join(m.stateDir, relPath)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
