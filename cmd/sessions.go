package cmd

import (
	"fmt"

	"github.com/theirongolddev/cxburn/internal/cli"

	"github.com/spf13/cobra"
)

var flagMinutes int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Recently active sessions",
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().IntVar(&flagMinutes, "minutes", 0, "Activity window in minutes (0 = configured default)")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	if err := refresh(cmd, a); err != nil {
		return err
	}

	var minutes *int
	if flagMinutes > 0 {
		minutes = &flagMinutes
	}
	sessions, err := a.ActiveSessions(minutes)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No active sessions.")
		return nil
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		context := "-"
		if s.ContextWindow > 0 {
			context = fmt.Sprintf("%s / %s",
				cli.FormatTokens(s.ContextUsed), cli.FormatTokens(s.ContextWindow))
		}
		rows = append(rows, []string{
			s.SessionID,
			s.Model,
			cli.FormatTS(s.SessionStart),
			cli.FormatTS(s.LastSeen),
			context,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Session", "Model", "Started", "Last seen", "Context"},
		Rows:    rows,
	}))
	return nil
}
