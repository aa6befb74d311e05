package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/cxburn/internal/cli"

	"github.com/spf13/cobra"
)

var flagHomeLabel string

var homesCmd = &cobra.Command{
	Use:   "homes",
	Short: "Manage tracked Codex homes",
	RunE:  runHomesList,
}

var homesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered homes",
	RunE:  runHomesList,
}

var homesAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Register a Codex home and make it active",
	Args:  cobra.ExactArgs(1),
	RunE:  runHomesAdd,
}

var homesUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Switch the active home",
	Args:  cobra.ExactArgs(1),
	RunE:  runHomesUse,
}

var homesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a home and its ingested data",
	Args:  cobra.ExactArgs(1),
	RunE:  runHomesRm,
}

var homesClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Drop a home's ingested data, keeping the registration",
	Args:  cobra.ExactArgs(1),
	RunE:  runHomesClear,
}

func init() {
	homesAddCmd.Flags().StringVarP(&flagHomeLabel, "label", "l", "", "Display label")
	homesCmd.AddCommand(homesListCmd, homesAddCmd, homesUseCmd, homesRmCmd, homesClearCmd)
	rootCmd.AddCommand(homesCmd)
}

func parseHomeID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid home id %q", arg)
	}
	return id, nil
}

func runHomesList(_ *cobra.Command, _ []string) error {
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	homes, err := a.ListHomes()
	if err != nil {
		return err
	}
	active, err := a.ActiveHome()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(homes))
	for _, h := range homes {
		marker := ""
		if h.ID == active.ID {
			marker = "*"
		}
		lastSeen := "-"
		if h.LastSeenAt != nil {
			lastSeen = cli.FormatTS(*h.LastSeenAt)
		}
		rows = append(rows, []string{
			marker,
			strconv.FormatInt(h.ID, 10),
			h.Label,
			h.Path,
			lastSeen,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", "ID", "Label", "Path", "Last seen"},
		Rows:    rows,
	}))
	return nil
}

func runHomesAdd(_ *cobra.Command, args []string) error {
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	home, err := a.CreateHome(args[0], flagHomeLabel)
	if err != nil {
		return err
	}
	fmt.Printf("  Added home %d (%s), now active\n", home.ID, home.Path)
	return nil
}

func runHomesUse(_ *cobra.Command, args []string) error {
	id, err := parseHomeID(args[0])
	if err != nil {
		return err
	}
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	if err := a.SetActiveHome(id); err != nil {
		return err
	}
	fmt.Printf("  Home %d is now active\n", id)
	return nil
}

func runHomesRm(_ *cobra.Command, args []string) error {
	id, err := parseHomeID(args[0])
	if err != nil {
		return err
	}
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	if err := a.DeleteHome(id); err != nil {
		return err
	}
	fmt.Printf("  Removed home %d\n", id)
	return nil
}

func runHomesClear(_ *cobra.Command, args []string) error {
	id, err := parseHomeID(args[0])
	if err != nil {
		return err
	}
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	if err := a.ClearHomeData(id); err != nil {
		return err
	}
	fmt.Printf("  Cleared data for home %d\n", id)
	return nil
}
