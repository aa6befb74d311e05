package cmd

import (
	"fmt"

	"github.com/theirongolddev/cxburn/internal/cli"

	"github.com/spf13/cobra"
)

var (
	flagEventsModel  string
	flagEventsLimit  int
	flagEventsOffset int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List raw usage events, newest first",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().StringVarP(&flagEventsModel, "model", "m", "", "Filter to one model")
	eventsCmd.Flags().IntVar(&flagEventsLimit, "limit", 50, "Maximum rows")
	eventsCmd.Flags().IntVar(&flagEventsOffset, "offset", 0, "Rows to skip")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
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
	events, err := a.Events(p, flagEventsModel, flagEventsLimit, flagEventsOffset)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("\n  No events in the selected time range.")
		return nil
	}

	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			cli.FormatTS(ev.TS),
			ev.Model,
			cli.FormatEffort(ev.ReasoningEffort),
			cli.FormatTokens(ev.Tokens.Input),
			cli.FormatTokens(ev.Tokens.Output),
			cli.FormatTokens(ev.Tokens.Total),
			cli.FormatMaybeCost(ev.CostUSD),
			ev.SessionID,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Time", "Model", "Effort", "Input", "Output", "Total", "Cost", "Session"},
		Rows:    rows,
	}))
	return nil
}
