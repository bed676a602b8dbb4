package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rfamscan/internal/backend"
	"rfamscan/internal/batch"
	"rfamscan/internal/config"
	"rfamscan/internal/search"
)

var planCmd = &cobra.Command{
	Use:   "plan <model_dir> <sequence_root> [output_root]",
	Short: "List the searches a batch would run",
	Long: `Walk model_dir and sequence_root like a real batch and print each pair
with the command it would run, without creating directories, writing job
scripts or starting any process.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runPlan,
}

// PlannedPair is one line of a dry run
type PlannedPair struct {
	ID        string `json:"id"`
	Model     string `json:"model"`
	Sequence  string `json:"sequence"`
	OutputDir string `json:"output_dir"`
	Command   string `json:"command"`
	Script    string `json:"script,omitempty"`
}

func init() {
	addSearchFlags(planCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
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

	pairs, models, err := batch.New(b, cfg.ModelSuffix).Plan(req)
	if err != nil {
		return err
	}

	planned, err := describePairs(cfg, newBuilder(cfg), pairs)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(os.Stdout, planned)
	}
	printPlan(os.Stdout, cfg, models, planned)
	return nil
}

// describePairs renders the command each pair would run in the configured
// execution mode
func describePairs(cfg *config.Config, builder search.Builder, pairs []backend.Pair) ([]PlannedPair, error) {
	planned := make([]PlannedPair, 0, len(pairs))
	for _, p := range pairs {
		pp := PlannedPair{
			ID:        p.ID,
			Model:     p.ModelPath,
			Sequence:  p.SequencePath,
			OutputDir: p.OutputDir,
		}

		var (
			c   search.Command
			err error
		)
		if cfg.ExecutionMode == config.ModeCluster {
			c, err = builder.Staged(p.Method)
			pp.Script = filepath.Join(p.OutputDir, p.Name+".sh")
		} else {
			c, err = builder.Local(p.Method, p.OutputPrefix(), p.ModelPath, p.SequencePath)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.ID, err)
		}
		pp.Command = c.String()
		planned = append(planned, pp)
	}
	return planned, nil
}

func printPlan(w io.Writer, cfg *config.Config, models int, planned []PlannedPair) {
	for _, p := range planned {
		fmt.Fprintln(w, titleStyle.Render(p.ID))
		fmt.Fprintf(w, "  output:  %s\n", p.OutputDir)
		if p.Script != "" {
			fmt.Fprintf(w, "  script:  %s\n", p.Script)
		}
		fmt.Fprintf(w, "  command: %s\n", p.Command)
	}
	if len(planned) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d models, %d pairs (%s, %s)\n", models, len(planned), cfg.Method, cfg.ExecutionMode)
}
