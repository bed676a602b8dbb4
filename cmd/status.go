package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rfamscan/internal/logging"
	"rfamscan/internal/state"
)

var (
	statusJSON   bool
	statusLatest bool
)

var statusCmd = &cobra.Command{
	Use:   "status [output_root]",
	Short: "Show recorded batches",
	Long: `List the batches recorded under an output root (default: the current
directory), oldest first.

Output formats:
  (default)  One line per batch
  --latest   Full report of the most recent batch
  --json     Machine-readable JSON output`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().BoolVar(&statusLatest, "latest", false, "Show only the most recent batch")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve output root: %w", err)
	}

	store := state.New(root)

	if lock, err := store.LoadLock(); err != nil {
		logging.Warn("%v", err)
	} else if lock != nil && !statusJSON {
		fmt.Printf("Running: pid %d on %s since %s\n\n",
			lock.PID, lock.Host, lock.StartedAt.Format("2006-01-02 15:04:05"))
	}

	if statusLatest {
		rec, err := store.LatestBatch()
		if err != nil {
			if errors.Is(err, state.ErrNoBatch) {
				return fmt.Errorf("no batches recorded under %s", root)
			}
			return err
		}
		if statusJSON {
			return printJSON(os.Stdout, rec)
		}
		printSummary(os.Stdout, &rec.Summary)
		return nil
	}

	result, err := store.LoadAllBatches()
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		logging.Warn("%v", e)
	}

	if statusJSON {
		return printJSON(os.Stdout, result.Records)
	}
	printBatchList(os.Stdout, root, result.Records)
	return nil
}

func printBatchList(w io.Writer, root string, records []*state.Record) {
	if len(records) == 0 {
		fmt.Fprintf(w, "No batches recorded under %s\n", root)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tBACKEND\tMETHOD\tPAIRS\tFAILED\tDURATION")
	for _, r := range records {
		s := r.Summary
		pairs := fmt.Sprintf("%d", s.Dispatched)
		if s.Interrupted {
			pairs = fmt.Sprintf("%d/%d", s.Dispatched, s.Pairs)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(s.RunID),
			s.StartedAt.Format("2006-01-02 15:04"),
			s.Backend,
			s.Method,
			pairs,
			s.Failed,
			formatDuration(s.Duration()),
		)
	}
	tw.Flush()
}
