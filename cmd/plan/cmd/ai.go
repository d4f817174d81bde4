package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theakshaypant/plan/internal/assist"
	"github.com/theakshaypant/plan/internal/calendar"
	"github.com/theakshaypant/plan/internal/core"
)

var quickCmd = &cobra.Command{
	Use:   "quick <text>",
	Short: "Add an event from a sentence",
	Long: `Describe an event in your own words and let Gemini fill in the details.

Example:
  plan quick "lunch with Sam tomorrow at 12:30 for an hour"

Needs a Gemini API key: set GEMINI_API_KEY (or gemini_api_key in the config).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuick,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <text>",
	Short: "Add several events from a pasted schedule",
	Long: `Paste a timetable, an agenda or a list of plans and add every event found.
Use '-' to read the text from stdin.

Example:
  plan schedule "Mon-Wed 9:00 lectures, Thu 18:00 football, Fri dentist 10am"
  pbpaste | plan schedule -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSchedule,
}

var briefingCmd = &cobra.Command{
	Use:   "briefing [date]",
	Short: "Summarise a day's plan",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBriefing,
}

func init() {
	rootCmd.AddCommand(quickCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(briefingCmd)

	scheduleCmd.Flags().BoolP("yes", "y", false, "Add the events without asking")
}

func newAssist(ctx context.Context) (*assist.Client, error) {
	return assist.New(ctx, assist.Config{
		APIKey: viper.GetString("gemini_api_key"),
		Model:  viper.GetString("gemini_model"),
		Logger: logger,
	})
}

func runQuick(cmd *cobra.Command, args []string) error {
	client, err := newAssist(cmd.Context())
	if err != nil {
		return err
	}

	now := time.Now()
	draft, err := client.ParseEvent(cmd.Context(), strings.Join(args, " "), now)
	if err != nil {
		return err
	}
	ev, err := draft.ToEvent(time.Local)
	if err != nil {
		return fmt.Errorf("%w\n\nTry including a date and a time", err)
	}
	ev.Description = assist.QuickAddDescription

	ev, err = store.UpsertEvent(cmd.Context(), ev)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	fmt.Println("✓ Added:")
	fmt.Println()
	DisplayOccurrence(core.Single(ev), now, DisplayOptionsFromConfig(true))
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(b)
	}

	client, err := newAssist(cmd.Context())
	if err != nil {
		return err
	}

	drafts, err := client.ParseSchedule(cmd.Context(), text, time.Now())
	if err != nil {
		return err
	}
	events, err := assist.ToEvents(drafts, time.Local, assist.FromTextDescription)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d events:\n", len(events))
	for _, ev := range events {
		fmt.Printf("  %s %-30s %s\n", ev.Category.Info().Icon, ev.Title, formatEventTime(ev.Start, ev.End))
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		ok, err := confirm(cmd.InOrStdin(), fmt.Sprintf("\nAdd these %d events? [y/N] ", len(events)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Nothing added.")
			return nil
		}
	}

	for i, ev := range events {
		if _, err := store.UpsertEvent(cmd.Context(), ev); err != nil {
			return fmt.Errorf("failed to save event %d of %d (%q): %w", i+1, len(events), ev.Title, err)
		}
	}
	fmt.Printf("✓ Added %d events\n", len(events))
	return nil
}

func runBriefing(cmd *cobra.Command, args []string) error {
	now := time.Now()
	day := calendar.StartOfDay(now)
	if len(args) > 0 {
		var err error
		if day, err = parseDate(args[0], now); err != nil {
			return err
		}
	}

	occ, err := occurrencesBetween(cmd, day, day.AddDate(0, 0, 1), now)
	if err != nil {
		return err
	}
	occ = calendar.DayOccurrences(occ, day)

	var text string
	if len(occ) == 0 {
		// No service call for an empty day
		text = assist.EmptyDayBriefing
	} else {
		client, err := newAssist(cmd.Context())
		if err != nil {
			return err
		}
		if text, err = client.Briefing(cmd.Context(), day, occ); err != nil {
			return err
		}
	}

	fmt.Printf("☀️  %s\n", day.Format("Monday, Jan 2"))
	fmt.Println("─────────────────────────────────────────────────")
	for _, line := range wrapText(text, 70) {
		fmt.Println(line)
	}
	return nil
}

// confirm asks a yes/no question on stdout and reads the answer from r.
func confirm(r io.Reader, prompt string) (bool, error) {
	fmt.Print(prompt)
	answer, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
