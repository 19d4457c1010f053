package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/stevehiehn/trinity/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(sess.cfg)
		}
		data, err := config.Dump(sess.cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
