package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/cxburn/internal/cli"
	"github.com/theirongolddev/cxburn/internal/config"

	"github.com/spf13/cobra"
)

var flagPricingFile string

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Manage pricing rules",
	RunE:  runPricingList,
}

var pricingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored pricing rules",
	RunE:  runPricingList,
}

var pricingReplaceCmd = &cobra.Command{
	Use:   "replace",
	Short: "Replace all pricing rules from a TOML file",
	RunE:  runPricingReplace,
}

var pricingRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Reprice stored events against the current rules",
	RunE:  runPricingRecompute,
}

func init() {
	pricingReplaceCmd.Flags().StringVarP(&flagPricingFile, "file", "f", "", "Rules file ([[rule]] tables)")
	_ = pricingReplaceCmd.MarkFlagRequired("file")
	pricingCmd.AddCommand(pricingListCmd, pricingReplaceCmd, pricingRecomputeCmd)
	rootCmd.AddCommand(pricingCmd)
}

func runPricingList(_ *cobra.Command, _ []string) error {
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	rules, err := a.ListPricing()
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		fmt.Println("\n  No pricing rules.")
		return nil
	}

	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		to := "open"
		if r.EffectiveTo != nil {
			to = cli.FormatTS(*r.EffectiveTo)
		}
		rows = append(rows, []string{
			r.ModelPattern,
			fmt.Sprintf("$%.3f", r.InputPer1M),
			fmt.Sprintf("$%.3f", r.CachedInputPer1M),
			fmt.Sprintf("$%.3f", r.OutputPer1M),
			cli.FormatTS(r.EffectiveFrom),
			to,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Pattern", "In/1M", "Cached/1M", "Out/1M", "From", "To"},
		Rows:    rows,
	}))
	return nil
}

func runPricingReplace(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(flagPricingFile); err != nil {
		return fmt.Errorf("rules file: %w", err)
	}
	rules, err := config.LoadPricingSeed(flagPricingFile)
	if err != nil {
		return err
	}

	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	n, err := a.ReplacePricing(rules)
	if err != nil {
		return err
	}
	fmt.Printf("  Replaced pricing with %d rules and repriced stored events\n", n)
	return nil
}

func runPricingRecompute(_ *cobra.Command, _ []string) error {
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	n, err := a.RecomputeCosts()
	if err != nil {
		return err
	}
	fmt.Printf("  Repriced %d events\n", n)
	return nil
}
