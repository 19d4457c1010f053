package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stevehiehn/trinity/internal/catalog"
	"github.com/stevehiehn/trinity/internal/engine"
	trerrors "github.com/stevehiehn/trinity/internal/errors"
	"github.com/stevehiehn/trinity/internal/logging"
	"github.com/stevehiehn/trinity/internal/runner"
)

var installCmd = &cobra.Command{
	Use:   "install <app>...",
	Short: "Install applications through the package manager",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSelection(cmd, catalog.Selection{Apps: args})
	},
}

var tweakCmd = &cobra.Command{
	Use:   "tweak <tweak>...",
	Short: "Apply system tweaks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSelection(cmd, catalog.Selection{Tweaks: args, Helpers: tweakHelpers})
	},
}

var tweakHelpers []string

var presetCmd = &cobra.Command{
	Use:   "preset <name>",
	Short: "Apply a preset bundle of helpers and tweaks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSelection(cmd, catalog.Selection{Preset: args[0]})
	},
}

func init() {
	tweakCmd.Flags().StringArrayVar(&tweakHelpers, "helper", nil, "Also start a background helper")
	rootCmd.AddCommand(installCmd, tweakCmd, presetCmd)
}

func newRunner() *runner.Runner {
	cfg := sess.cfg
	return runner.New(runner.Options{
		PackageManager: cfg.Runner.PackageManager,
		Shell:          cfg.Runner.Shell,
		ShellFlag:      cfg.Runner.ShellFlag,
		Logger:         logging.GetLogger("runner"),
		Metrics:        sess.metrics,
		Breaker: runner.BreakerSettings{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			OpenTimeout:         time.Duration(cfg.Breaker.OpenTimeout),
		},
	})
}

func newOrchestrator(exec runner.Executor) *engine.Orchestrator {
	opts := engine.Options{
		Executor: exec,
		Logger:   logging.GetLogger("engine"),
		Metrics:  sess.metrics,
	}
	if sess.cfg.State.KeepArtifacts {
		opts.StateDir = sess.cfg.State.Dir
	}
	return engine.New(opts)
}

// runSelection turns sel into one batch, runs it and renders the report.
func runSelection(cmd *cobra.Command, sel catalog.Selection) error {
	if sel.Empty() {
		return trerrors.ErrNothingSelected
	}

	c, err := loadCatalog()
	if err != nil {
		return err
	}
	actions, err := c.Select(sel, templateInputs())
	if err != nil {
		return err
	}

	if !assumeYes {
		question := fmt.Sprintf("Apply %d action(s)?", len(actions))
		if !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), question) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
			return nil
		}
	}

	batch, err := newOrchestrator(newRunner()).Submit(actions)
	if err != nil {
		return err
	}
	sess.logger.Info().Str("batch_id", batch.ID).Int("actions", batch.Len()).Msg("Batch submitted")

	r := newRenderer(cmd.OutOrStdout(), jsonOutput)
	if err := engine.Await(cmd.Context(), r, batch); err != nil {
		return err
	}
	if r.failed > 0 {
		return &trerrors.RunError{
			Type:    trerrors.NonZeroExit,
			Message: fmt.Sprintf("%d action(s) failed", r.failed),
			Hint:    fmt.Sprintf("See %s for details", sess.cfg.Log.File),
		}
	}
	return nil
}
