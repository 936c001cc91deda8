package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/multistair/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or create the multistair configuration",
	Long: `View or create the multistair configuration.

Without arguments, displays the current configuration.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/multistair/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file locations",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "staircase:")
	fmt.Fprintf(out, "  name: %s\n", cfg.Staircase.Name)
	fmt.Fprintf(out, "  var_name: %s\n", cfg.Staircase.VarName)
	fmt.Fprintf(out, "  policy: %s\n", cfg.Staircase.Policy)
	fmt.Fprintf(out, "  n_trials: %d\n", cfg.Staircase.NTrials)
	fmt.Fprintf(out, "  seed: %q\n", cfg.Staircase.Seed)
	fmt.Fprintf(out, "  duplicates: %d\n", cfg.Staircase.Duplicates)
	fmt.Fprintf(out, "  stair_type: %s\n", cfg.Staircase.StairType)
	fmt.Fprintf(out, "  conditions: %s\n", cfg.Staircase.Conditions)

	fmt.Fprintln(out, "quest:")
	fmt.Fprintf(out, "  p_threshold: %g\n", cfg.Quest.PThreshold)
	fmt.Fprintf(out, "  beta: %g\n", cfg.Quest.Beta)
	fmt.Fprintf(out, "  delta: %g\n", cfg.Quest.Delta)
	fmt.Fprintf(out, "  gamma: %g\n", cfg.Quest.Gamma)
	fmt.Fprintf(out, "  grain: %g\n", cfg.Quest.Grain)
	fmt.Fprintf(out, "  method: %s\n", cfg.Quest.Method)

	fmt.Fprintln(out, "simulation:")
	labels := make([]string, 0, len(cfg.Simulation.Thresholds))
	for l := range cfg.Simulation.Thresholds {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		fmt.Fprintf(out, "  threshold %s: %g\n", l, cfg.Simulation.Thresholds[l])
	}
	fmt.Fprintf(out, "  fallback_threshold: %g\n", cfg.Simulation.FallbackThreshold)

	fmt.Fprintln(out, "output:")
	fmt.Fprintf(out, "  dir: %s\n", cfg.Output.Dir)
	fmt.Fprintf(out, "  format: %s\n", cfg.Output.Format)

	fmt.Fprintln(out, "batch:")
	fmt.Fprintf(out, "  sessions: %d\n", cfg.Batch.Sessions)
	fmt.Fprintf(out, "  workers: %d\n", cfg.Batch.Workers)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)

	return nil
}

const defaultConfigFile = `# multistair configuration

staircase:
  # Namespace for recorded data fields
  name: stairs
  # SEQUENTIAL, RANDOM or FULL_RANDOM
  policy: SEQUENTIAL
  # Trial budget for conditions that do not set nTrials
  n_trials: 20
  # Seed for reproducible trial selection (empty = unseeded)
  seed: ""
  # Duplication factor, used with FULL_RANDOM
  duplicates: 1
  # Default condition file for run and batch
  conditions: ""

# QUEST parameters used when a condition does not set them
quest:
  p_threshold: 0.82
  beta: 3.5
  delta: 0.01
  gamma: 0.5
  grain: 0.01
  # quantile, mean or mode
  method: quantile

# Simulated observer
simulation:
  # True threshold per condition label
  thresholds: {}
  fallback_threshold: 0

output:
  dir: data
  # json or csv
  format: json
  report: true

batch:
  sessions: 10
  # 0 runs one session per CPU
  workers: 0

logging:
  enabled: true
  # debug, info, warn, error
  level: info
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigFile), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: MULTISTAIR_* (e.g., MULTISTAIR_STAIRCASE_POLICY)")

	return nil
}
