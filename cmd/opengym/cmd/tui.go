package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theakshaypant/opengym/internal/crowd"
	"github.com/theakshaypant/opengym/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the interactive schedule grid",
	Long: `Launch the interactive schedule grid.

Wide terminals show a Monday to Friday week; below 100 columns the grid
switches to a three-day window. Page with the arrow keys or by dragging
with the mouse.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().String("layout", "auto", "Layout: auto, desktop or mobile")
}

func runTUI(cmd *cobra.Command, args []string) error {
	layout, err := parseLayout(cmd.Flag("layout").Value.String())
	if err != nil {
		return err
	}

	// Start from the cached schedule; the model fetches on Init.
	refresher.Seed()

	capacity := viper.GetInt("crowd_capacity")
	m := tui.NewModel(tui.Options{
		Title:     "🏋 " + adapter.Name(),
		Refresher: refresher,
		Estimator: crowd.RandomEstimator{Capacity: capacity},
		Capacity:  capacity,
		Strict:    !viper.GetBool("loose"),
		Layout:    layout,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func parseLayout(s string) (tui.LayoutMode, error) {
	switch s {
	case "", "auto":
		return tui.LayoutAuto, nil
	case "desktop":
		return tui.LayoutDesktop, nil
	case "mobile":
		return tui.LayoutMobile, nil
	default:
		return tui.LayoutAuto, fmt.Errorf("unknown layout %q (auto, desktop, mobile)", s)
	}
}
