package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var flagHistoryJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect session review history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent reviews, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		entries := openHistory(c.Client.Session).List()
		out := cmd.OutOrStdout()
		if flagHistoryJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No history.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%d  %-11s %-8s %-10s %s\n", e.ID, e.Time, e.Mode.Label(), e.Language, summarize(e.Code, 50))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fail(ExitUsageError, fmt.Errorf("invalid id %q", args[0]))
		}
		e, ok := openHistory(c.Client.Session).Get(id)
		if !ok {
			return fail(ExitUsageError, fmt.Errorf("no history entry %d", id))
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s (%s)\n\n%s\n\n%s\n", e.Time, e.Mode.Label(), e.Language, e.Code, e.Result)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the session history",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		if err := openHistory(c.Client.Session).Clear(); err != nil {
			return fail(ExitRuntimeError, fmt.Errorf("clearing history: %w", err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	},
}

func summarize(code string, width int) string {
	code = strings.Join(strings.Fields(code), " ")
	if r := []rune(code); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return code
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyListCmd.Flags().BoolVar(&flagHistoryJSON, "json", false, "Print entries as JSON")
}
