package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"rfamscan/internal/search"
)

const (
	// ConfigFileName is the name of the rfamscan config file
	ConfigFileName = "rfamscan.yaml"
	// StateDir is the name of the state directory kept under an output root
	StateDir = ".rfamscan"
)

// Execution modes
const (
	ModeLocal   = "local"
	ModeCluster = "cluster"
)

// ErrConfigNotFound is returned by FindConfigDir when no config file exists
// between the start directory and the filesystem root.
var ErrConfigNotFound = errors.New("no " + ConfigFileName + " found")

// Config represents the rfamscan.yaml configuration
type Config struct {
	ExecutionMode string        `yaml:"execution_mode" validate:"oneof=local cluster"`
	Method        search.Method `yaml:"method" validate:"oneof=cmsearch cmscan"`
	CPU           int           `yaml:"cpu" validate:"min=1,max=256"`
	MemoryMB      int           `yaml:"memory_mb" validate:"min=1"`
	TmpMemoryMB   int           `yaml:"tmp_memory_mb" validate:"min=1"`
	TmpPath       string        `yaml:"tmp_path" validate:"required"`
	ModelSuffix   string        `yaml:"model_suffix" validate:"required"`
	SearchTools   SearchTools   `yaml:"search_tools"`
	Cluster       ClusterConfig `yaml:"cluster"`
}

// SearchTools maps each search method to its executable
type SearchTools struct {
	CMSearch string `yaml:"cmsearch" validate:"required"`
	CMScan   string `yaml:"cmscan" validate:"required"`
}

// ClusterConfig contains LSF-related settings
type ClusterConfig struct {
	SubmitCommand string `yaml:"submit_command" validate:"required"`
	JobIDVar      string `yaml:"job_id_var" validate:"required"`
	ResourceGroup string `yaml:"resource_group"`
	Shell         string `yaml:"shell" validate:"required"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ExecutionMode: ModeLocal,
		Method:        search.MethodCMSearch,
		CPU:           4,
		MemoryMB:      4000,
		TmpMemoryMB:   9000,
		TmpPath:       "/tmp",
		ModelSuffix:   ".cm",
		SearchTools: SearchTools{
			CMSearch: "cmsearch",
			CMScan:   "cmscan",
		},
		Cluster: ClusterConfig{
			SubmitCommand: "bsub",
			JobIDVar:      "LSB_JOBID",
			ResourceGroup: "/rfam_rnac",
			Shell:         "/bin/csh",
		},
	}
}

// Load reads the config from the specified directory
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the config from an explicit file path
func LoadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	return &cfg, nil
}

// Save writes the config to the specified directory
func Save(dir string, cfg *Config) error {
	configPath := filepath.Join(dir, ConfigFileName)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Exists checks if a config file exists in the directory
func Exists(dir string) bool {
	configPath := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(configPath)
	return err == nil
}

// applyDefaults fills in missing values with defaults
func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.ExecutionMode == "" {
		cfg.ExecutionMode = def.ExecutionMode
	}
	if cfg.Method == "" {
		cfg.Method = def.Method
	}
	if cfg.CPU == 0 {
		cfg.CPU = def.CPU
	}
	if cfg.MemoryMB == 0 {
		cfg.MemoryMB = def.MemoryMB
	}
	if cfg.TmpMemoryMB == 0 {
		cfg.TmpMemoryMB = def.TmpMemoryMB
	}
	if cfg.TmpPath == "" {
		cfg.TmpPath = def.TmpPath
	}
	if cfg.ModelSuffix == "" {
		cfg.ModelSuffix = def.ModelSuffix
	}
	if cfg.SearchTools.CMSearch == "" {
		cfg.SearchTools.CMSearch = def.SearchTools.CMSearch
	}
	if cfg.SearchTools.CMScan == "" {
		cfg.SearchTools.CMScan = def.SearchTools.CMScan
	}
	if cfg.Cluster.SubmitCommand == "" {
		cfg.Cluster.SubmitCommand = def.Cluster.SubmitCommand
	}
	if cfg.Cluster.JobIDVar == "" {
		cfg.Cluster.JobIDVar = def.Cluster.JobIDVar
	}
	if cfg.Cluster.ResourceGroup == "" {
		cfg.Cluster.ResourceGroup = def.Cluster.ResourceGroup
	}
	if cfg.Cluster.Shell == "" {
		cfg.Cluster.Shell = def.Cluster.Shell
	}
}

// FindConfigDir walks up from startDir to find rfamscan.yaml
func FindConfigDir(startDir string) (string, error) {
	dir := startDir
	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return "", ErrConfigNotFound
		}
		dir = parent
	}
}

// Resolve returns the effective configuration. An explicit path must exist;
// otherwise the nearest rfamscan.yaml above startDir is used, falling back
// to DefaultConfig when there is none.
func Resolve(explicitPath, startDir string) (*Config, string, error) {
	if explicitPath != "" {
		cfg, err := LoadFile(explicitPath)
		if err != nil {
			return nil, "", err
		}
		return cfg, explicitPath, nil
	}

	dir, err := FindConfigDir(startDir)
	if errors.Is(err, ErrConfigNotFound) {
		return DefaultConfig(), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := Load(dir)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Join(dir, ConfigFileName), nil
}
