package cmd

import (
	"os"

	"nistats/sources"

	pretty "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Lists the configured source families.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		t := pretty.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(pretty.StyleLight)
		t.AppendHeader(pretty.Row{"Name", "Description", "TTL", "Mother page"})

		for _, src := range sources.All() {
			t.AppendRow(pretty.Row{src.Name, src.Description, src.TTL, src.MotherPage})
		}
		t.Render()
	},
}
