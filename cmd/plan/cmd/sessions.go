package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theakshaypant/plan/internal/storage"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show logged work sessions",
	Long: `Show the work sessions (pomodoro, stopwatch and smart focus) imported from
the browser version, newest first.`,
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().Bool("clear", false, "Delete all logged sessions")
}

func runSessions(cmd *cobra.Command, args []string) error {
	sessions := storage.NewSessionStore(kv, storage.WithLogger(logger))

	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		if err := sessions.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		fmt.Println("✓ Work sessions cleared")
		return nil
	}

	list, err := sessions.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	fmt.Println("⏱️  Work sessions:")
	fmt.Println("─────────────────────────────────────────────────")

	if len(list) == 0 {
		fmt.Println("No sessions logged.")
		return nil
	}

	var total time.Duration
	for _, s := range list {
		total += s.Duration
		fmt.Printf("  %s  %-12s %-8s %s\n",
			s.Date.Format("Mon, Jan 2 15:04"),
			s.Kind,
			formatDurationCompact(s.Duration),
			s.Name)
	}

	fmt.Println("─────────────────────────────────────────────────")
	fmt.Printf("Total: %d sessions, %s\n", len(list), formatDurationCompact(total))
	return nil
}
