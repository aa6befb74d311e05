package cmd

import (
	"fmt"

	"github.com/theirongolddev/cxburn/internal/cli"

	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Context-window pressure",
	RunE:  runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, _ []string) error {
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	if err := refresh(cmd, a); err != nil {
		return err
	}

	latest, ok, err := a.LatestContext()
	if err != nil {
		return err
	}
	fmt.Println()
	if ok {
		if pct, known := latest.PercentLeft(); known {
			fmt.Printf("  Current context: %s of %s used, %s\n",
				cli.FormatTokens(latest.Used),
				cli.FormatTokens(latest.Window),
				cli.RenderMeter(pct, 20))
		} else {
			fmt.Printf("  Current context: %s used (window unknown)\n",
				cli.FormatTokens(latest.Used))
		}
	} else {
		fmt.Println("  No context readings yet.")
	}

	p, err := rangeParams()
	if err != nil {
		return err
	}
	stats, err := a.ContextStats(p)
	if err != nil {
		return err
	}
	if stats.SampleCount == 0 {
		return nil
	}

	fmt.Println()
	rows := [][]string{
		{"Samples", cli.FormatNumber(stats.SampleCount)},
	}
	if stats.AvgContextUsed != nil {
		rows = append(rows, []string{"Avg used", cli.FormatTokens(uint64(*stats.AvgContextUsed))})
	}
	if stats.AvgContextWindow != nil {
		rows = append(rows, []string{"Avg window", cli.FormatTokens(uint64(*stats.AvgContextWindow))})
	}
	if stats.AvgPressurePct != nil {
		rows = append(rows, []string{"Avg pressure", cli.FormatPercent(*stats.AvgPressurePct)})
	}
	fmt.Print(cli.RenderTable(cli.Table{Title: "Range averages", Rows: rows}))
	return nil
}
