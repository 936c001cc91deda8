package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/multistair/internal/config"
	"github.com/Iron-Ham/multistair/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "multistair",
	Short: "Interleaved adaptive staircases for psychophysics",
	Long: `multistair runs several QUEST staircases in one block of trials,
choosing on every trial which staircase supplies the stimulus intensity.

Sessions are driven by a simulated observer so that condition files and
selection policies can be checked before they are used with participants.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Cancelling ctx stops a running session
// after its current trial.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/multistair/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MULTISTAIR")
	// Replace dots with underscores for nested keys in env vars
	// e.g., MULTISTAIR_STAIRCASE_POLICY for staircase.policy
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newLogger opens the run logger in dir, or a no-op logger when logging
// is disabled.
func newLogger(cfg *config.Config, dir string) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return logging.NewLogger(dir, logging.ParseLevel(cfg.Logging.Level), logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}
