package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rfamscan/internal/config"
	"rfamscan/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFile    string
	logStamps  bool

	logFileHandle *os.File
)

var rootCmd = &cobra.Command{
	Use:   "rfamscan <model_dir> <sequence_root> [output_root]",
	Short: "Run Infernal searches for every model against every sequence file",
	Long: `rfamscan pairs every covariance model (*.cm) in model_dir with every
sequence file under sequence_root and runs one cmsearch or cmscan per pair,
one after another.

Results go to <output_root>/<family>/<family>_<sequence>.out, where
output_root defaults to sequence_root. With -m, each subdirectory of
sequence_root is a project and results go to <family>/<project>/.

In cluster mode an LSF job script is written next to each output and
submitted with bsub; rfamscan waits only for the submission.`,
	Args:              cobra.RangeArgs(2, 3),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE:              runSearch,
}

// Execute runs the root command
func Execute() {
	defer closeLogFile()
	if err := rootCmd.Execute(); err != nil {
		logging.Error("%v", err)
		closeLogFile()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default: nearest "+config.ConfigFileName+" above the current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO",
		"Log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Append log output to a file instead of the terminal")
	rootCmd.PersistentFlags().BoolVar(&logStamps, "log-timestamps", true,
		"Prefix log lines with an RFC3339 timestamp")

	addSearchFlags(rootCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if _, err := logging.ParseLevel(logLevel); err != nil {
		return err
	}
	logging.SetLevel(logLevel)
	logging.SetTimestamps(logStamps)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFileHandle = f
		logging.SetOutput(f)
	}
	return nil
}

func closeLogFile() {
	if logFileHandle == nil {
		return
	}
	logging.SetOutput(nil)
	logFileHandle.Close()
	logFileHandle = nil
}
