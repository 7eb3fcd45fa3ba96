package cmd

import (
	"nistats/sources"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <source>",
	Short: "Runs the pipeline of a source by name.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := sources.Lookup(args[0])
		if err != nil {
			return err
		}
		return pull(cmd.Context(), src)
	},
}
