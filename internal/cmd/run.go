package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/multistair/internal/conditions"
	"github.com/Iron-Ham/multistair/internal/config"
	"github.com/Iron-Ham/multistair/internal/report"
	"github.com/Iron-Ham/multistair/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run [conditions-file]",
	Short: "Run one simulated staircase session",
	Long: `Run one session of interleaved staircases against a simulated observer.

The condition file (YAML, JSON or CSV) lists one staircase per row with at
least label, startVal and startValSd. Trial data is written to the output
directory and a summary of every staircase is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("policy", "p", "", "selection policy (SEQUENTIAL, RANDOM, FULL_RANDOM)")
	flags.IntP("trials", "n", 0, "trial budget per staircase")
	flags.String("seed", "", "seed for trial selection")
	flags.Int("duplicates", 0, "duplication factor for FULL_RANDOM")
	flags.StringP("output", "o", "", "output directory")
	flags.String("format", "", "trial data format (json, csv)")
	flags.Bool("no-report", false, "do not print the summary table")

	runCmd.PreRun = bindFlags(map[string]string{
		"staircase.policy":     "policy",
		"staircase.n_trials":   "trials",
		"staircase.seed":       "seed",
		"staircase.duplicates": "duplicates",
		"output.dir":           "output",
		"output.format":        "format",
	})
}

// bindFlags returns a PreRun hook binding the command's flags to viper
// keys. Several commands share keys, so binding waits until the command
// actually runs.
func bindFlags(keys map[string]string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		for key, flag := range keys {
			_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
		}
	}
}

// loadRun loads the configuration and the condition file named by args or
// by staircase.conditions.
func loadRun(args []string) (*config.Config, conditions.Set, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, conditions.Set{}, err
	}
	path := cfg.Staircase.Conditions
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, conditions.Set{}, fmt.Errorf("no conditions file given; pass one as an argument or set staircase.conditions")
	}
	set, err := conditions.Load(path)
	if err != nil {
		return nil, conditions.Set{}, err
	}
	return cfg, set, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, set, err := loadRun(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() { _ = logger.Close() }()

	res, err := session.Run(cmd.Context(), session.Params{
		Config:     cfg,
		Conditions: set,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	noReport, _ := cmd.Flags().GetBool("no-report")
	if cfg.Output.Report && !noReport {
		fmt.Fprintln(out, report.Render(res.Summary))
	}
	fmt.Fprintf(out, "Session %s: %d trials written to %s\n", res.SessionID, res.Summary.Trials, res.DataPath)
	return nil
}
