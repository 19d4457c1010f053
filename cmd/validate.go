package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the apps and tweaks catalogs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog()
		if err != nil {
			if jsonOutput {
				_ = json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"valid": false, "error": err.Error()})
			}
			return err
		}
		if jsonOutput {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"valid":   true,
				"apps":    len(c.Apps),
				"tweaks":  len(c.Tweaks),
				"helpers": len(c.Helpers),
				"presets": len(c.Presets),
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Catalog is valid: %d apps, %d tweaks, %d helpers, %d presets.\n",
			len(c.Apps), len(c.Tweaks), len(c.Helpers), len(c.Presets))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
