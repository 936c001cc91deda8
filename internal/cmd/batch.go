package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/multistair/internal/conditions"
	"github.com/Iron-Ham/multistair/internal/config"
	"github.com/Iron-Ham/multistair/internal/logging"
	"github.com/Iron-Ham/multistair/internal/report"
	"github.com/Iron-Ham/multistair/internal/session"
)

var batchCmd = &cobra.Command{
	Use:   "batch [conditions-file]",
	Short: "Run many simulated sessions and report estimation error",
	Long: `Run independent simulated sessions in parallel and summarise how far
each staircase's final estimate lands from the simulated true threshold.

Seeded batches derive one seed per session from the base seeds, so the
whole batch is reproducible.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	flags := batchCmd.Flags()
	flags.StringP("policy", "p", "", "selection policy (SEQUENTIAL, RANDOM, FULL_RANDOM)")
	flags.IntP("trials", "n", 0, "trial budget per staircase")
	flags.String("seed", "", "base seed for trial selection")
	flags.IntP("sessions", "s", 0, "number of sessions")
	flags.IntP("workers", "w", 0, "sessions run at once (0 = GOMAXPROCS)")
	flags.StringP("output", "o", "", "output directory")

	batchCmd.PreRun = bindFlags(map[string]string{
		"staircase.policy":   "policy",
		"staircase.n_trials": "trials",
		"staircase.seed":     "seed",
		"batch.sessions":     "sessions",
		"batch.workers":      "workers",
		"output.dir":         "output",
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, set, err := loadRun(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() { _ = logger.Close() }()

	summaries, err := RunBatch(cmd.Context(), cfg, set, logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.RenderBatch(len(summaries), report.Aggregate(summaries)))
	fmt.Fprintf(cmd.OutOrStdout(), "Trial data written to %s\n", filepath.Clean(cfg.Output.Dir))
	return nil
}

type batchResult struct {
	index   int
	summary report.Summary
}

// RunBatch runs cfg.Batch.Sessions sessions on a bounded worker pool and
// returns their summaries in session order. The first failing session
// cancels the rest.
func RunBatch(ctx context.Context, cfg *config.Config, set conditions.Set, logger *logging.Logger) ([]report.Summary, error) {
	p := pool.NewWithResults[batchResult]().WithContext(ctx).WithCancelOnError()
	if cfg.Batch.Workers > 0 {
		p = p.WithMaxGoroutines(cfg.Batch.Workers)
	}

	for i := 0; i < cfg.Batch.Sessions; i++ {
		p.Go(func(ctx context.Context) (batchResult, error) {
			res, err := session.Run(ctx, session.Params{
				Config:       cfg,
				Conditions:   set,
				SessionID:    fmt.Sprintf("%03d-%s", i, session.NewID()),
				Seed:         session.DeriveSeed(cfg.Staircase.Seed, i),
				ObserverSeed: session.DeriveSeed(cfg.Simulation.Seed, i),
				Logger:       logger,
			})
			if err != nil {
				return batchResult{}, fmt.Errorf("session %d: %w", i, err)
			}
			return batchResult{index: i, summary: res.Summary}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })

	summaries := make([]report.Summary, len(results))
	for i, r := range results {
		summaries[i] = r.summary
	}
	return summaries, nil
}
