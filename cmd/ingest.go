package cmd

import (
	"fmt"

	"github.com/theirongolddev/cxburn/internal/cli"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest new Codex session logs into the database",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	stats, err := a.RunIngest(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("  Scanned %d files (%d up to date), ingested %s events, read %s bytes\n",
		stats.FilesScanned, stats.FilesSkipped,
		cli.FormatNumber(uint64(stats.EventsInserted)),
		cli.FormatNumber(stats.BytesRead))
	for _, issue := range stats.Issues {
		fmt.Printf("  warning: %s: %s\n", issue.FilePath, issue.Message)
	}
	return nil
}
