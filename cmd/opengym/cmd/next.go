package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theakshaypant/opengym/internal/core"
	"github.com/theakshaypant/opengym/internal/countdown"
	"github.com/theakshaypant/opengym/internal/crowd"
	"github.com/theakshaypant/opengym/internal/util"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next open gym session",
	Long: `Show the countdown to the next open session, its details and the current
crowd level.`,
	RunE: runNext,
}

func init() {
	rootCmd.AddCommand(nextCmd)
}

func runNext(cmd *cobra.Command, args []string) error {
	snap, err := loadSnapshot(cmd.Context())
	if err != nil {
		return err
	}

	now := refresher.Now()
	capacity := viper.GetInt("crowd_capacity")
	reading := crowd.Sample(crowd.RandomEstimator{Capacity: capacity}, capacity, now)

	printNextSession(cmd.OutOrStdout(), snap.NextEvent, now, reading)
	return nil
}

func printNextSession(w io.Writer, next *core.Event, now time.Time, reading crowd.Reading) {
	fmt.Fprintln(w, "─────────────────────────────────────────────────")
	fmt.Fprintln(w, "  NEXT OPEN SESSION")
	fmt.Fprintln(w, "─────────────────────────────────────────────────")
	fmt.Fprintln(w)

	d := countdown.Evaluate(now, next)
	switch d.Phase {
	case countdown.NoEvent, countdown.Stale:
		fmt.Fprintf(w, "  %s\n", d.Text)
	case countdown.JustStarted:
		fmt.Fprintf(w, "  🟢 %s\n", strings.ToUpper(d.Text))
	default:
		fmt.Fprintf(w, "  ⏳ %s\n", strings.ToUpper(d.Text))
	}
	fmt.Fprintf(w, "  👥 Crowd:       %s (%d of %d)\n", reading.Level, reading.Count, reading.Capacity)

	if next != nil && d.Phase != countdown.Stale {
		fmt.Fprintln(w)
		printEventDetails(w, *next)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "─────────────────────────────────────────────────")
}

func printEventDetails(w io.Writer, e core.Event) {
	fmt.Fprintf(w, "  %s\n", e.Title)
	fmt.Fprintf(w, "  🕐 When:        %s, %s - %s\n", e.Start.Format("Mon, Jan 2"), e.Start.Format("15:04"), e.End.Format("15:04"))

	if e.Location != "" {
		fmt.Fprintf(w, "  📍 Location:    %s\n", e.Location)
	}
	if e.URL != "" {
		fmt.Fprintf(w, "  🔗 Event:       %s\n", util.Hyperlink(e.URL, util.Truncate(e.URL, 60)))
	}
	if e.Description != "" {
		fmt.Fprintln(w, "  📝 Description:")
		for _, line := range wrapText(util.HTMLToText(e.Description, 60), 60) {
			fmt.Fprintf(w, "     %s\n", line)
		}
	}
}

// wrapText wraps text to the given width
func wrapText(s string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(s, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}

		line := words[0]
		for _, word := range words[1:] {
			if len(line)+1+len(word) > width {
				lines = append(lines, line)
				line = word
			} else {
				line += " " + word
			}
		}
		lines = append(lines, line)
	}
	return lines
}
