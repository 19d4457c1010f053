package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/stevehiehn/trinity/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the apps, tweaks, helpers and presets that can be selected",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog()
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(c)
		}
		printCatalog(newRenderer(cmd.OutOrStdout(), false), c)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func printCatalog(r *renderer, c *catalog.Catalog) {
	w := r.out
	section := func(title string) {
		fmt.Fprintln(w, r.style(titleStyle, title))
	}

	section("Apps")
	category := ""
	for _, a := range c.Apps {
		if a.Category != category {
			category = a.Category
			fmt.Fprintf(w, "  %s\n", category)
		}
		fmt.Fprintf(w, "    %-20s %s %s\n", a.Name, a.DisplayName, r.style(mutedStyle, a.PackageID))
	}

	section("\nTweaks")
	for _, t := range c.Tweaks {
		fmt.Fprintf(w, "  %s %s\n", t.Name, r.style(mutedStyle, "["+t.Category+"]"))
		printIndented(w, t.Description)
	}

	section("\nHelpers")
	for _, h := range c.Helpers {
		fmt.Fprintf(w, "  %s %s\n", h.Name, r.style(mutedStyle, "(reinstall via "+h.InstallID+")"))
	}

	section("\nPresets")
	for _, p := range c.Presets {
		fmt.Fprintf(w, "  %s (%d items)\n", p.Name, len(p.Items))
		printIndented(w, p.Description)
	}
}

func printIndented(w io.Writer, s string) {
	if s != "" {
		fmt.Fprintf(w, "      %s\n", s)
	}
}
