package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/cxburn/internal/app"
	"github.com/theirongolddev/cxburn/internal/cli"
	"github.com/theirongolddev/cxburn/internal/model"

	"github.com/spf13/cobra"
)

var flagWindows int

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Rate-limit status and window history",
	RunE:  runLimits,
}

func init() {
	limitsCmd.Flags().IntVar(&flagWindows, "windows", 0, "Show the last N weekly windows")
	rootCmd.AddCommand(limitsCmd)
}

func runLimits(cmd *cobra.Command, _ []string) error {
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	if err := refresh(cmd, a); err != nil {
		return err
	}

	if flagWindows > 0 {
		return printLimitWindows(a, flagWindows)
	}

	short, long, err := a.LimitsLatest()
	if err != nil {
		return err
	}
	if short == nil && long == nil {
		fmt.Println("\n  No rate-limit snapshots yet.")
		return nil
	}

	current, err := a.LimitsCurrent()
	if err != nil {
		return err
	}

	fmt.Println()
	printLimit("5h window", short, current.Short)
	fmt.Println()
	printLimit("7d window", long, current.Long)
	return nil
}

func printLimit(name string, snap *model.LimitSnapshot, window *model.CurrentLimitWindow) {
	if snap == nil {
		fmt.Printf("  %s: no data\n", name)
		return
	}
	fmt.Printf("  %s  %s\n", name, cli.RenderMeter(snap.PercentLeft, 20))
	if reset, err := model.ParseTS(snap.ResetAt); err == nil {
		until := time.Until(reset)
		if until > 0 {
			fmt.Printf("    resets %s (in %s)\n", cli.FormatTS(snap.ResetAt), cli.FormatDuration(until))
		} else {
			fmt.Printf("    last reset %s\n", cli.FormatTS(snap.ResetAt))
		}
	}
	if window != nil {
		fmt.Printf("    this window: %s tokens, %s, %s messages\n",
			cli.FormatTokens(window.TotalTokens),
			cli.FormatMaybeCost(window.TotalCostUSD),
			cli.FormatNumber(window.MessageCount))
	}
}

func printLimitWindows(a *app.App, limit int) error {
	windows, err := a.Limits7dWindows(limit)
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		fmt.Println("\n  No weekly windows observed yet.")
		return nil
	}

	rows := make([][]string, 0, len(windows))
	for _, w := range windows {
		span := fmt.Sprintf("%s → %s", cli.FormatTS(w.WindowStart), cli.FormatTS(w.WindowEnd))
		if !w.Complete {
			span += " (partial)"
		}
		rows = append(rows, []string{
			span,
			cli.FormatTokens(w.TotalTokens),
			cli.FormatMaybeCost(w.TotalCostUSD),
			cli.FormatNumber(w.MessageCount),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Window", "Tokens", "Cost", "Messages"},
		Rows:    rows,
	}))
	return nil
}
