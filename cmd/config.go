package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"rfamscan/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  "View and create rfamscan configuration.",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective configuration with resolved defaults.",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default " + config.ConfigFileName,
	Long:  "Write " + config.ConfigFileName + " with default values to dir (default: the current directory).",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, source, err := config.Resolve(configPath, cwd)
	if err != nil {
		return err
	}

	// Validate and show errors
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Errors:\n%v\n\n", err)
	}

	// Show warnings
	for _, w := range cfg.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if source == "" {
		fmt.Printf("# No %s found; built-in defaults\n\n", config.ConfigFileName)
	} else {
		fmt.Printf("# Configuration: %s\n", source)
		fmt.Printf("# (defaults applied for missing values)\n\n")
	}
	fmt.Print(string(data))

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if config.Exists(dir) && !configInitForce {
		return fmt.Errorf("%s already exists in %s (use --force to overwrite)", config.ConfigFileName, dir)
	}

	if err := config.Save(dir, config.DefaultConfig()); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", config.ConfigFileName)
	return nil
}
