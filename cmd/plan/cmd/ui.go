package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/storage"
	"github.com/theakshaypant/plan/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the interactive calendar",
	Long: `Launch the interactive day/week/month calendar.

Drag an event to move it, drag its top or bottom edge to resize it, and click
an empty slot to create one. Press ? inside for all keys.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().Int("rows-per-hour", 2, "Terminal rows per hour in day and week view")
}

func runTUI(cmd *cobra.Command, args []string) error {
	rowsPerHour, _ := cmd.Flags().GetInt("rows-per-hour")

	cfg := tui.Config{
		Store: store,
		SaveView: func(vs storage.ViewState) error {
			return storage.SaveView(kv, vs)
		},
		View:        storage.LoadView(kv, time.Local),
		Location:    time.Local,
		RowsPerHour: rowsPerHour,
		Logger:      logger,
	}

	// Quick add is optional
	if client, err := newAssist(cmd.Context()); err == nil {
		cfg.Assist = client
	} else {
		logger.Info("quick add disabled", zap.Error(err))
	}

	// Set up the program with mouse support and alt screen
	p := tea.NewProgram(
		tui.NewModel(cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
