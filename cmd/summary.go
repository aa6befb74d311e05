package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cxburn/internal/cli"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Usage totals for the selected range",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	if err := refresh(cmd, a); err != nil {
		return err
	}
	p, err := rangeParams()
	if err != nil {
		return err
	}
	sum, err := a.Summary(p)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("USAGE  " + strings.ToUpper(rangeLabel())))
	fmt.Println()

	rows := [][]string{
		{"Total tokens", cli.FormatTokens(sum.TotalTokens), cli.FormatMaybeCost(sum.TotalCostUSD)},
		{"Input", cli.FormatTokens(sum.InputTokens), cli.FormatMaybeCost(sum.InputCostUSD)},
		{"  cached", cli.FormatTokens(sum.CachedInputTokens), cli.FormatMaybeCost(sum.CachedInputCostUSD)},
		{"Output", cli.FormatTokens(sum.OutputTokens), cli.FormatMaybeCost(sum.OutputCostUSD)},
		{"  reasoning", cli.FormatTokens(sum.ReasoningOutputTokens), ""},
		{"---"},
		{"Events", cli.FormatNumber(sum.EventCount), ""},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", "Tokens", "Cost"},
		Rows:    rows,
	}))
	return nil
}
