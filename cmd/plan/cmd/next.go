package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theakshaypant/plan/internal/core"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next upcoming event",
	Long: `Show detailed information about the next upcoming event, including repeating
events and the one currently in progress.

Supports all the same filters as the main command.`,
	RunE: runNext,
}

func init() {
	rootCmd.AddCommand(nextCmd)
}

func runNext(cmd *cobra.Command, args []string) error {
	now := time.Now()
	_, end, err := dateRange(now)
	if err != nil {
		return err
	}

	occ, err := occurrencesBetween(cmd, now, end, now)
	if err != nil {
		return err
	}

	// Skip finished and completed occurrences
	var eligible []core.Occurrence
	for _, o := range occ {
		if o.Completed {
			continue
		}
		if o.Start.After(now) || o.InProgress(now) {
			eligible = append(eligible, o)
		}
	}

	if len(eligible) == 0 {
		fmt.Println("No upcoming events found.")
		return nil
	}

	// Occurrences are sorted by start time
	nextStart := eligible[0].Start
	var concurrent []core.Occurrence
	for _, o := range eligible {
		if !o.Start.Equal(nextStart) {
			break
		}
		concurrent = append(concurrent, o)
	}

	if len(concurrent) > 1 {
		printConcurrent(concurrent, now)
	} else {
		printNext(concurrent[0], now)
	}

	return nil
}

func printCountdown(o core.Occurrence, now time.Time) {
	fmt.Println()
	if o.InProgress(now) {
		fmt.Printf("  🟢 IN PROGRESS - %s remaining\n", formatDurationCompact(o.End.Sub(now)))
	} else {
		fmt.Printf("  ⏳ STARTS IN: %s\n", formatCountdown(o.Start.Sub(now)))
	}
}

func printConcurrent(occ []core.Occurrence, now time.Time) {
	fmt.Println("─────────────────────────────────────────────────")
	fmt.Printf("  ⚠️  %d EVENTS AT THE SAME TIME\n", len(occ))
	fmt.Println("─────────────────────────────────────────────────")

	printCountdown(occ[0], now)

	opts := DisplayOptionsFromConfig(false)
	opts.ShowInProgress = false
	opts.ShowDesc = false

	for i, o := range occ {
		fmt.Printf("\n  EVENT %d of %d\n", i+1, len(occ))
		fmt.Println("  ─────────────────────────────────────────────")
		DisplayOccurrence(o, now, opts)
	}

	fmt.Println()
}

func printNext(o core.Occurrence, now time.Time) {
	fmt.Println("─────────────────────────────────────────────────")
	fmt.Println("  NEXT EVENT")
	fmt.Println("─────────────────────────────────────────────────")

	printCountdown(o, now)
	fmt.Println()

	DisplayOccurrence(o, now, DisplayOptionsFromConfig(true))

	fmt.Println()
	fmt.Println("─────────────────────────────────────────────────")
}
