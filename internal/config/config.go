package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/multistair/internal/staircase"
)

// Config represents the complete multistair configuration
type Config struct {
	Staircase  StaircaseConfig  `mapstructure:"staircase"`
	Quest      QuestConfig      `mapstructure:"quest"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Output     OutputConfig     `mapstructure:"output"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// StaircaseConfig controls the multi-staircase coordinator
type StaircaseConfig struct {
	// Name namespaces ledger fields and recorded data (default: "stairs")
	Name string `mapstructure:"name"`
	// VarName names the manipulated stimulus variable (default: "intensity")
	VarName string `mapstructure:"var_name"`
	// Policy selects the next staircase
	// Options: "SEQUENTIAL", "RANDOM", "FULL_RANDOM"
	Policy string `mapstructure:"policy"`
	// NTrials is the trial budget of conditions that do not set their own
	NTrials int `mapstructure:"n_trials"`
	// Seed makes trial selection reproducible; empty means unseeded
	Seed string `mapstructure:"seed"`
	// Duplicates is the duplication factor for FULL_RANDOM (default: 1)
	Duplicates int `mapstructure:"duplicates"`
	// StairType is the procedure kind. Only "QUEST" is supported.
	StairType string `mapstructure:"stair_type"`
	// AutoLog traces every procedure update at debug level
	AutoLog bool `mapstructure:"auto_log"`
	// Conditions is the path of a YAML, JSON or CSV condition file
	Conditions string `mapstructure:"conditions"`
}

// QuestConfig holds the QUEST parameters conditions fall back to
type QuestConfig struct {
	PThreshold float64 `mapstructure:"p_threshold"`
	Beta       float64 `mapstructure:"beta"`
	Delta      float64 `mapstructure:"delta"`
	Gamma      float64 `mapstructure:"gamma"`
	Grain      float64 `mapstructure:"grain"`
	// Range is the width of the posterior grid (0 = 500 grains)
	Range float64 `mapstructure:"range"`
	// Method reads the next intensity off the posterior
	// Options: "quantile", "mean", "mode"
	Method string `mapstructure:"method"`
	// MinVal and MaxVal clamp recommended intensities when set
	MinVal *float64 `mapstructure:"min_val"`
	MaxVal *float64 `mapstructure:"max_val"`
	// StopInterval finishes a staircase early once its 95% interval is
	// narrower (0 = disabled)
	StopInterval float64 `mapstructure:"stop_interval"`
}

// SimulationConfig controls the simulated observer used by run and batch
type SimulationConfig struct {
	// Thresholds maps condition labels to true thresholds. Thresholds in the
	// condition file take precedence.
	Thresholds map[string]float64 `mapstructure:"thresholds"`
	// FallbackThreshold is used for labels without a threshold
	FallbackThreshold float64 `mapstructure:"fallback_threshold"`
	// Seed seeds the observer's responses; empty means unseeded
	Seed string `mapstructure:"seed"`
}

// OutputConfig controls where trial data is written
type OutputConfig struct {
	// Dir receives data files and logs (default: "./data")
	Dir string `mapstructure:"dir"`
	// Format of the trial data file
	// Options: "json", "csv"
	Format string `mapstructure:"format"`
	// Report prints a summary table after each run
	Report bool `mapstructure:"report"`
}

// BatchConfig controls the batch command
type BatchConfig struct {
	// Sessions is the number of simulated sessions to run
	Sessions int `mapstructure:"sessions"`
	// Workers caps how many sessions run at once (0 = GOMAXPROCS)
	Workers int `mapstructure:"workers"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is active (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level sets the minimum log level to record (default: "info")
	// Valid values: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum size of a log file before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	d := staircase.DefaultDefaults(0)
	return &Config{
		Staircase: StaircaseConfig{
			Name:       "stairs",
			VarName:    "intensity",
			Policy:     "SEQUENTIAL",
			NTrials:    20,
			Duplicates: 1,
			StairType:  "QUEST",
		},
		Quest: QuestConfig{
			PThreshold: d.PThreshold,
			Beta:       d.Beta,
			Delta:      d.Delta,
			Gamma:      d.Gamma,
			Grain:      d.Grain,
			Method:     d.Method,
		},
		Simulation: SimulationConfig{
			Thresholds: map[string]float64{},
		},
		Output: OutputConfig{
			Dir:    "data",
			Format: "json",
			Report: true,
		},
		Batch: BatchConfig{
			Sessions: 10,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// StaircaseDefaults returns the QUEST parameters conditions fall back to.
func (c *Config) StaircaseDefaults() staircase.Defaults {
	d := staircase.Defaults{
		NTrials:    c.Staircase.NTrials,
		PThreshold: c.Quest.PThreshold,
		Beta:       c.Quest.Beta,
		Delta:      c.Quest.Delta,
		Gamma:      c.Quest.Gamma,
		Grain:      c.Quest.Grain,
		Range:      c.Quest.Range,
		Method:     c.Quest.Method,
		MinVal:     c.Quest.MinVal,
		MaxVal:     c.Quest.MaxVal,
	}
	if c.Quest.StopInterval > 0 {
		si := c.Quest.StopInterval
		d.StopInterval = &si
	}
	return d
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Staircase defaults
	viper.SetDefault("staircase.name", defaults.Staircase.Name)
	viper.SetDefault("staircase.var_name", defaults.Staircase.VarName)
	viper.SetDefault("staircase.policy", defaults.Staircase.Policy)
	viper.SetDefault("staircase.n_trials", defaults.Staircase.NTrials)
	viper.SetDefault("staircase.seed", defaults.Staircase.Seed)
	viper.SetDefault("staircase.duplicates", defaults.Staircase.Duplicates)
	viper.SetDefault("staircase.stair_type", defaults.Staircase.StairType)
	viper.SetDefault("staircase.auto_log", defaults.Staircase.AutoLog)
	viper.SetDefault("staircase.conditions", defaults.Staircase.Conditions)

	// Quest defaults
	viper.SetDefault("quest.p_threshold", defaults.Quest.PThreshold)
	viper.SetDefault("quest.beta", defaults.Quest.Beta)
	viper.SetDefault("quest.delta", defaults.Quest.Delta)
	viper.SetDefault("quest.gamma", defaults.Quest.Gamma)
	viper.SetDefault("quest.grain", defaults.Quest.Grain)
	viper.SetDefault("quest.range", defaults.Quest.Range)
	viper.SetDefault("quest.method", defaults.Quest.Method)
	viper.SetDefault("quest.stop_interval", defaults.Quest.StopInterval)

	// Simulation defaults
	viper.SetDefault("simulation.thresholds", defaults.Simulation.Thresholds)
	viper.SetDefault("simulation.fallback_threshold", defaults.Simulation.FallbackThreshold)
	viper.SetDefault("simulation.seed", defaults.Simulation.Seed)

	// Output defaults
	viper.SetDefault("output.dir", defaults.Output.Dir)
	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.report", defaults.Output.Report)

	// Batch defaults
	viper.SetDefault("batch.sessions", defaults.Batch.Sessions)
	viper.SetDefault("batch.workers", defaults.Batch.Workers)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "multistair")
	}
	// Fall back to ~/.config/multistair
	home, err := os.UserHomeDir()
	if err != nil {
		return ".multistair"
	}
	return filepath.Join(home, ".config", "multistair")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
