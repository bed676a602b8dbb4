package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rfamscan/internal/backend"
	"rfamscan/internal/batch"
	"rfamscan/internal/config"
	"rfamscan/internal/fsutil"
	"rfamscan/internal/jobscript"
	"rfamscan/internal/logging"
	"rfamscan/internal/proc"
	"rfamscan/internal/search"
	"rfamscan/internal/state"
)

// Flags shared by the root command and plan
var (
	multi      bool
	methodFlag string
	modeFlag   string
	cpuFlag    int
	jsonOutput bool
)

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&multi, "multi", "m", false,
		"Treat each subdirectory of sequence_root as a project")
	cmd.Flags().StringVar(&methodFlag, "method", "",
		"Search method: cmsearch or cmscan (overrides config)")
	cmd.Flags().StringVar(&modeFlag, "mode", "",
		"Execution mode: local or cluster (overrides config)")
	cmd.Flags().IntVar(&cpuFlag, "cpu", 0,
		"CPUs per search (overrides config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	req, err := newRequest(cfg, args)
	if err != nil {
		return err
	}

	b, err := newBackend(cfg)
	if err != nil {
		return err
	}
	// Keep stdout clean for the JSON summary
	if local, ok := b.(*backend.Local); ok && jsonOutput {
		local.Stdout = os.Stderr
	}

	// Inputs must exist before anything under the output root is created
	if err := checkInputs(req); err != nil {
		return err
	}

	store := state.New(req.OutputRoot)
	if err := store.AcquireLock(&state.Lock{
		PID:       os.Getpid(),
		StartedAt: time.Now(),
		Args:      os.Args,
	}); err != nil {
		if errors.Is(err, state.ErrBatchRunning) {
			return fmt.Errorf("%w (lock: %s)", err, store.LockPath())
		}
		return err
	}
	defer func() {
		if err := store.ReleaseLock(); err != nil {
			logging.Warn("Failed to release lock: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, runErr := batch.New(b, cfg.ModelSuffix).Run(ctx, req)
	if sum == nil {
		return runErr
	}

	if err := store.SaveBatch(sum); err != nil {
		logging.Warn("Failed to record batch: %v", err)
	} else {
		logging.Debug("Recorded batch %s in %s", sum.RunID, store.Dir())
	}

	if jsonOutput {
		if err := printJSON(os.Stdout, sum); err != nil {
			return err
		}
	} else {
		printSummary(os.Stdout, sum)
	}
	logOutcome(sum)

	return exitError(sum, runErr)
}

func checkInputs(req batch.Request) error {
	if err := fsutil.RequireDir(req.ModelDir); err != nil {
		return fmt.Errorf("model directory: %w", err)
	}
	if err := fsutil.RequireDir(req.SequenceRoot); err != nil {
		return fmt.Errorf("sequence root: %w", err)
	}
	return nil
}

// logOutcome writes the one-line result of a batch to the log
func logOutcome(s *batch.Summary) {
	switch {
	case s.Interrupted:
		logging.Warn("Batch %s interrupted: %d of %d pairs dispatched, %d failed", s.RunID, s.Dispatched, s.Pairs, s.Failed)
	case s.Failed > 0:
		logging.Warn("Batch %s finished: %d of %d pairs failed", s.RunID, s.Failed, s.Dispatched)
	default:
		logging.Success("Batch %s finished: %d pairs dispatched", s.RunID, s.Dispatched)
	}
}

// exitError is the command's result: the run error if the batch was cut
// short, otherwise an error when any pair failed
func exitError(s *batch.Summary, runErr error) error {
	if runErr != nil {
		return runErr
	}
	if s == nil {
		return nil
	}
	return s.Err()
}

// loadConfig resolves the config file, applies command-line overrides and
// validates the result
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, source, err := config.Resolve(configPath, cwd)
	if err != nil {
		return nil, err
	}
	if source == "" {
		logging.Debug("No %s found, using defaults", config.ConfigFileName)
	} else {
		logging.Debug("Using config %s", source)
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		m, err := search.ParseMethod(methodFlag)
		if err != nil {
			return nil, err
		}
		cfg.Method = m
	}
	if flags.Changed("mode") {
		cfg.ExecutionMode = modeFlag
	}
	if flags.Changed("cpu") {
		cfg.CPU = cpuFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings() {
		logging.Warn("%s", w)
	}
	return cfg, nil
}

// newRequest builds a batch request from the positional arguments. The
// output root is made absolute here so the lock and the batch record land
// where the dispatcher writes.
func newRequest(cfg *config.Config, args []string) (batch.Request, error) {
	req := batch.Request{
		ModelDir:     args[0],
		SequenceRoot: args[1],
		Multi:        multi,
		Method:       cfg.Method,
	}

	out := req.SequenceRoot
	if len(args) > 2 {
		out = args[2]
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return req, fmt.Errorf("failed to resolve output root: %w", err)
	}
	req.OutputRoot = abs
	return req, nil
}

// newBackend selects the dispatch backend for the configured execution mode
func newBackend(cfg *config.Config) (backend.Backend, error) {
	builder := newBuilder(cfg)

	switch cfg.ExecutionMode {
	case config.ModeLocal:
		return backend.NewLocal(builder, proc.DefaultExecutor), nil
	case config.ModeCluster:
		scripts := jobscript.New(jobscript.Resources{
			MemoryMB:      cfg.MemoryMB,
			TmpMemoryMB:   cfg.TmpMemoryMB,
			CPU:           cfg.CPU,
			TmpPath:       cfg.TmpPath,
			ResourceGroup: cfg.Cluster.ResourceGroup,
			Shell:         cfg.Cluster.Shell,
			JobIDVar:      cfg.Cluster.JobIDVar,
		})
		return backend.NewCluster(builder, scripts, proc.DefaultExecutor, cfg.Cluster.SubmitCommand), nil
	default:
		return nil, fmt.Errorf("unknown execution mode %q", cfg.ExecutionMode)
	}
}

func newBuilder(cfg *config.Config) search.Builder {
	return search.Builder{
		Tools:    cfg.Tools(),
		CPU:      cfg.CPU,
		TmpPath:  cfg.TmpPath,
		JobIDVar: cfg.Cluster.JobIDVar,
	}
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
