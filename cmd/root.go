package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/cxburn/internal/app"
	"github.com/theirongolddev/cxburn/internal/config"
	"github.com/theirongolddev/cxburn/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagRange    string
	flagStart    string
	flagEnd      string
	flagDB       string
	flagQuiet    bool
	flagNoIngest bool
)

var rootCmd = &cobra.Command{
	Use:           "cxburn",
	Short:         "Codex usage metrics CLI",
	Long:          "Track your Codex CLI usage: tokens, costs, sessions, and rate limits.",
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRange, "range", "r", "", "Time range: today|last7days|last14days|thismonth|alltime")
	rootCmd.PersistentFlags().StringVar(&flagStart, "start", "", "Range start (YYYY-MM-DD or RFC3339); overrides --range")
	rootCmd.PersistentFlags().StringVar(&flagEnd, "end", "", "Range end (YYYY-MM-DD or RFC3339)")
	rootCmd.PersistentFlags().StringVarP(&flagDB, "db", "d", "", "Database path override")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagNoIngest, "no-ingest", false, "Skip the implicit ingest before reading")
}

// openApp loads the config, opens the store and seeds pricing on first use.
// The returned closer must be deferred.
func openApp() (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if flagDB != "" {
		cfg.General.DBPath = flagDB
	}

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, err
	}
	closer := func() { _ = st.Close() }

	a := app.New(st, cfg)
	if err := a.SeedPricing(); err != nil {
		closer()
		return nil, nil, err
	}
	return a, closer, nil
}

// refresh ingests new log data before a read command, unless disabled.
func refresh(cmd *cobra.Command, a *app.App) error {
	if flagNoIngest {
		return nil
	}
	stats, err := a.RunIngest(cmd.Context())
	if err != nil {
		return err
	}
	if !flagQuiet && stats.EventsInserted > 0 {
		fmt.Fprintf(os.Stderr, "  Ingested %d new events from %d files\n",
			stats.EventsInserted, stats.FilesScanned)
	}
	for _, issue := range stats.Issues {
		fmt.Fprintf(os.Stderr, "  warning: %s: %s\n", issue.FilePath, issue.Message)
	}
	return nil
}

// rangeParams builds the shared time-range selection from the root flags.
func rangeParams() (app.RangeParams, error) {
	p := app.RangeParams{Preset: flagRange}
	if flagStart != "" {
		t, err := parseFlagTime(flagStart)
		if err != nil {
			return p, fmt.Errorf("--start: %w", err)
		}
		p.Start = &t
	}
	if flagEnd != "" {
		t, err := parseFlagTime(flagEnd)
		if err != nil {
			return p, fmt.Errorf("--end: %w", err)
		}
		p.End = &t
	}
	return p, nil
}

func parseFlagTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time %q", s)
	}
	return t.UTC(), nil
}

// rangeLabel names the selected range for titles.
func rangeLabel() string {
	if flagStart != "" {
		return flagStart + "…"
	}
	if flagRange == "" {
		return "last7days"
	}
	return flagRange
}
