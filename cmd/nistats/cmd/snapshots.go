package cmd

import (
	"os"
	"time"

	"nistats/lib/snapstore"

	pretty "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsShowCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspects previously pulled and validated results.",
}

func openStore() (snapstore.Store, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return snapstore.Store{}, nil, err
	}
	db, err := snapstore.Open(cfg.SnapshotDb)
	if err != nil {
		return snapstore.Store{}, nil, err
	}
	return snapstore.NewStore(db), db.Close, nil
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list <source>",
	Short: "Lists the recorded pulls of a source, newest first.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		history, err := store.History(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		t := pretty.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(pretty.StyleLight)
		t.AppendHeader(pretty.Row{"Period", "Pulled at", "URL"})
		for _, rec := range history {
			t.AppendRow(pretty.Row{rec.Period, rec.PulledAt.Format(time.RFC1123), rec.URL})
		}
		t.Render()
		return nil
	},
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <source>",
	Short: "Prints the table stored by the most recent pull of a source.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		tbl, rec, err := store.LatestTable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(tbl, resultHeaderFromRecord(rec))
	},
}

func resultHeaderFromRecord(rec snapstore.PullRecord) string {
	if rec.Period == "" {
		return rec.URL
	}
	return rec.Period + " (" + rec.URL + ")"
}
