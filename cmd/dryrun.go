package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stevehiehn/trinity/internal/catalog"
	"github.com/stevehiehn/trinity/internal/engine"
	trerrors "github.com/stevehiehn/trinity/internal/errors"
)

var dryRunSel catalog.Selection

var dryRunCmd = &cobra.Command{
	Use:   "dry-run",
	Short: "Show what would be executed without running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dryRunSel.Empty() {
			return trerrors.ErrNothingSelected
		}
		c, err := loadCatalog()
		if err != nil {
			return err
		}
		actions, err := c.Select(dryRunSel, templateInputs())
		if err != nil {
			return err
		}
		steps := engine.Plan(actions, newRunner().CommandLine)
		newRenderer(cmd.OutOrStdout(), jsonOutput).Plan(steps)
		return nil
	},
}

func init() {
	f := dryRunCmd.Flags()
	f.StringVar(&dryRunSel.Preset, "preset", "", "Preset to plan")
	f.StringArrayVar(&dryRunSel.Apps, "app", nil, "App to plan (repeatable)")
	f.StringArrayVar(&dryRunSel.Tweaks, "tweak", nil, "Tweak to plan (repeatable)")
	f.StringArrayVar(&dryRunSel.Helpers, "helper", nil, "Helper to plan (repeatable)")
	rootCmd.AddCommand(dryRunCmd)
}
