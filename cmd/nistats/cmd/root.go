package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"nistats/lib/configutil"
	"nistats/lib/fetch"
	"nistats/lib/pipeline"
	"nistats/lib/snapstore"
	"nistats/lib/telemetry"
	"nistats/sources"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var (
	flagFormat  string
	flagOutput  string
	flagRefresh bool
	flagDebug   bool
)

type config struct {
	CacheDir   string `json:"cache_dir"`
	SnapshotDb string `json:"snapshot_db"`
}

func defaultConfig() config {
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		cacheRoot = os.TempDir()
	}
	dir := filepath.Join(cacheRoot, "nistats")
	return config{
		CacheDir:   dir,
		SnapshotDb: filepath.Join(dir, "snapshots.db"),
	}
}

func loadConfig() (config, error) {
	return configutil.ReadConfigOr("nistats.json5", defaultConfig())
}

var rootCmd = &cobra.Command{
	Use:           "nistats",
	Short:         "nistats pulls, validates and tabulates Northern Ireland statistics publications.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(flagDebug)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "table", "output format: table, csv or json")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "write the result to a file instead of stdout")
	rootCmd.PersistentFlags().BoolVar(&flagRefresh, "refresh", false, "bypass the download cache")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "debug logging, including http exchanges")

	for _, src := range sources.All() {
		rootCmd.AddCommand(newSourceCmd(src))
	}
}

// newSourceCmd builds the subcommand of one source family straight
// from its pipeline configuration.
func newSourceCmd(src pipeline.Source) *cobra.Command {
	return &cobra.Command{
		Use:   src.Name,
		Short: src.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return pull(cmd.Context(), src)
		},
	}
}

func pull(ctx context.Context, src pipeline.Source) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var client *resty.Client
	if flagDebug {
		client = fetch.NewDebugClient(filepath.Join(cfg.CacheDir, "http"))
	} else {
		client = fetch.NewClient()
	}
	cache, err := fetch.NewCache(client, cfg.CacheDir)
	if err != nil {
		return err
	}

	res, err := pipeline.New(client, cache).Run(ctx, src, flagRefresh)
	if err != nil {
		return err
	}

	db, err := snapstore.Open(cfg.SnapshotDb)
	if err != nil {
		return err
	}
	defer db.Close()
	err = snapstore.NewStore(db).Push(ctx, src.Name, res.Publication, res.Table)
	if err != nil {
		return err
	}

	return render(res.Table, resultHeader(res))
}

func resultHeader(res pipeline.Result) string {
	if res.Publication.Period == "" {
		return res.Publication.URL
	}
	return fmt.Sprintf("%s (%s)", res.Publication.Period, res.Publication.URL)
}

func Execute() {
	ctx := context.Background()

	// a telemetry.json5 anywhere up the tree turns on otlp export,
	// without one spans and gauges just go nowhere.
	tel, err := telemetry.SetupFromEnv(ctx, "nistats")
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err == nil {
		defer tel.Shutdown(ctx)
		telemetry.InstrumentPerfStats(ctx)
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
