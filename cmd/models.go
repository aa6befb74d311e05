package cmd

import (
	"fmt"

	"github.com/theirongolddev/cxburn/internal/cli"

	"github.com/spf13/cobra"
)

var (
	flagModelCosts  bool
	flagModelEffort bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Per-model usage breakdown",
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().BoolVar(&flagModelCosts, "costs", false, "Show per-token-type costs")
	modelsCmd.Flags().BoolVar(&flagModelEffort, "effort", false, "Split by reasoning effort")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
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

	fmt.Println()
	fmt.Println(cli.RenderTitle("MODEL USAGE"))
	fmt.Println()

	switch {
	case flagModelEffort && flagModelCosts:
		groups, err := a.BreakdownByModelEffortCosts(p)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, []string{
				g.Model,
				cli.FormatEffort(g.ReasoningEffort),
				cli.FormatTokens(g.Tokens.Total),
				cli.FormatMaybeCost(g.InputCostUSD),
				cli.FormatMaybeCost(g.OutputCostUSD),
				cli.FormatMaybeCost(g.TotalCostUSD),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Model", "Effort", "Tokens", "Input $", "Output $", "Total $"},
			Rows:    rows,
		}))
	case flagModelEffort:
		groups, err := a.BreakdownByModelEffortTokens(p)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, []string{
				g.Model,
				cli.FormatEffort(g.ReasoningEffort),
				cli.FormatTokens(g.Tokens.Input),
				cli.FormatTokens(g.Tokens.Output),
				cli.FormatTokens(g.Tokens.Total),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Model", "Effort", "Input", "Output", "Total"},
			Rows:    rows,
		}))
	case flagModelCosts:
		groups, err := a.BreakdownByModelCosts(p)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, []string{
				g.Model,
				cli.FormatTokens(g.Tokens.Total),
				cli.FormatMaybeCost(g.InputCostUSD),
				cli.FormatMaybeCost(g.CachedInputCostUSD),
				cli.FormatMaybeCost(g.OutputCostUSD),
				cli.FormatMaybeCost(g.TotalCostUSD),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Model", "Tokens", "Input $", "Cached $", "Output $", "Total $"},
			Rows:    rows,
		}))
	default:
		groups, err := a.BreakdownByModel(p)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, []string{
				g.Model,
				cli.FormatTokens(g.TotalTokens),
				cli.FormatMaybeCost(g.TotalCostUSD),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Model", "Tokens", "Cost"},
			Rows:    rows,
		}))
	}
	return nil
}
