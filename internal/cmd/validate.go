package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/multistair/internal/conditions"
	"github.com/Iron-Ham/multistair/internal/config"
	"github.com/Iron-Ham/multistair/internal/multistair"
	"github.com/Iron-Ham/multistair/internal/session"
	"github.com/Iron-Ham/multistair/internal/watch"
)

var validateCmd = &cobra.Command{
	Use:   "validate <conditions-file>...",
	Short: "Check condition files",
	Long: `Check that condition files parse and that every condition builds a
staircase under the current configuration.

With --watch, the files are checked again whenever they change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("watch", false, "re-check files when they change")
	validateCmd.Flags().StringP("policy", "p", "", "selection policy to check against")
	validateCmd.PreRun = bindFlags(map[string]string{"staircase.policy": "policy"})
}

// ValidateFile loads a condition file and builds a coordinator from it.
func ValidateFile(cfg *config.Config, path string) (int, error) {
	set, err := conditions.Load(path)
	if err != nil {
		return 0, err
	}
	mc, err := session.CoordinatorConfig(cfg, set, cfg.Staircase.Seed)
	if err != nil {
		return 0, err
	}
	coord, err := multistair.New(mc)
	if err != nil {
		return 0, err
	}
	return len(coord.Procedures()), nil
}

func checkFiles(out io.Writer, cfg *config.Config, paths []string) error {
	var failed int
	for _, path := range paths {
		n, err := ValidateFile(cfg, path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%d staircases)\n", path, n)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d condition files invalid", failed, len(paths))
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	err = checkFiles(out, cfg, args)
	if watchFlag, _ := cmd.Flags().GetBool("watch"); !watchFlag {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(args, func(path string) {
		fmt.Fprintf(out, "\n%s changed\n", path)
		_ = checkFiles(out, cfg, []string{path})
	})
	if err != nil {
		return fmt.Errorf("failed to watch condition files: %w", err)
	}
	defer func() { _ = w.Close() }()
	w.SetErrorCallback(func(err error) {
		fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
	})

	fmt.Fprintln(out, "Watching for changes (Ctrl+C to stop)")
	return w.Run(ctx)
}
