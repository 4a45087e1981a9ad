package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var calendarsCmd = &cobra.Command{
	Use:     "calendars",
	Aliases: []string{"cal", "cals"},
	Short:   "List the calendars the schedule is read from",
	Long: `List the calendars the configured provider reads. With OAuth this is every
calendar on the account; with an API key or an ICS feed it is the configured
one.`,
	RunE: runCalendars,
}

func init() {
	rootCmd.AddCommand(calendarsCmd)
}

func runCalendars(cmd *cobra.Command, args []string) error {
	calendars := adapter.Calendars()

	ids := make([]string, 0, len(calendars))
	for id := range calendars {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return calendars[ids[i]] < calendars[ids[j]] })

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📅 %s calendars:\n", adapter.Name())
	fmt.Fprintln(out, "─────────────────────────────────────────────────")
	for _, id := range ids {
		fmt.Fprintf(out, "\n  • %s\n", calendars[id])
		fmt.Fprintf(out, "    ID: %s\n", id)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total: %d calendars\n", len(calendars))
	fmt.Fprintln(out, "\nTip: set calendar_id to a comma-separated list of IDs to read only those")
	return nil
}
