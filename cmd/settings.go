package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/cxburn/internal/app"
	"github.com/theirongolddev/cxburn/internal/cli"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	RunE:  runSettingsGet,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the effective settings",
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting (codex-home, default-range, active-minutes)",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsGet(_ *cobra.Command, _ []string) error {
	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	s, err := a.Settings()
	if err != nil {
		return err
	}

	defaultRange := s.DefaultRange
	if defaultRange == "" {
		defaultRange = "last7days"
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Rows: [][]string{
			{"codex-home", s.CodexHome},
			{"db-path", s.DBPath},
			{"default-range", defaultRange},
			{"active-minutes", strconv.Itoa(s.ContextActiveMinutes)},
		},
	}))
	return nil
}

func runSettingsSet(_ *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	var patch app.SettingsPatch
	switch key {
	case "codex-home":
		patch.CodexHome = &value
	case "default-range":
		patch.DefaultRange = &value
	case "active-minutes":
		minutes, err := strconv.Atoi(value)
		if err != nil || minutes <= 0 {
			return fmt.Errorf("active-minutes must be a positive integer, got %q", value)
		}
		patch.ContextActiveMinutes = &minutes
	default:
		return fmt.Errorf("unknown setting %q", key)
	}

	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	if err := a.UpdateSettings(patch); err != nil {
		return err
	}
	fmt.Printf("  %s = %s\n", key, value)
	return nil
}
