package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/calendar"
	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/geometry"
	"github.com/theakshaypant/plan/internal/grid"
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add an event",
	Long: `Add an event to the local calendar.

Examples:
  plan add "Standup" --start 09:30 --duration 15m --category meeting
  plan add "Gym" --date tomorrow --start 18:00 --end 19:30 --category fitness
  plan add "Review" --date monday --start 14:00 --repeat weekly --until 2026-12-31`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var moveCmd = &cobra.Command{
	Use:   "move <id|title>",
	Short: "Move an event to another time or day",
	Long: `Move an event, keeping its duration. Times snap to 15 minutes and the event
stays inside its day, exactly like dragging it in 'plan ui'.

Only the first occurrence of a repeating event can be moved; moving it
shifts the whole series.`,
	Args: cobra.ExactArgs(1),
	RunE: runMove,
}

var resizeCmd = &cobra.Command{
	Use:   "resize <id|title>",
	Short: "Change when an event starts or ends",
	Long: `Drag the top or bottom edge of an event. Times snap to 15 minutes and the
event keeps at least 15 minutes.`,
	Args: cobra.ExactArgs(1),
	RunE: runResize,
}

var doneCmd = &cobra.Command{
	Use:   "done <id|title>",
	Short: "Mark an event as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id|title>",
	Aliases: []string{"rm"},
	Short:   "Delete an event (and all of its repetitions)",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(resizeCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(deleteCmd)

	addCmd.Flags().String("date", "today", "Day of the event")
	addCmd.Flags().String("start", "", "Start time (HH:MM)")
	addCmd.Flags().String("end", "", "End time (HH:MM)")
	addCmd.Flags().Duration("duration", time.Hour, "Length of the event when --end is not given")
	addCmd.Flags().String("category", "work", "Category (work, personal, fitness, meeting, education, other)")
	addCmd.Flags().String("description", "", "Description")
	addCmd.Flags().String("repeat", "none", "Repeat (none, daily, weekly, monthly, yearly, custom)")
	addCmd.Flags().Int("every", 1, "Repeat interval (every N days/weeks/...)")
	addCmd.Flags().String("until", "", "Last day of the repetition (required with --repeat)")
	addCmd.MarkFlagRequired("start")

	moveCmd.Flags().String("at", "", "New start time (HH:MM)")
	moveCmd.Flags().String("day", "", "New day (defaults to the event's day)")
	moveCmd.MarkFlagRequired("at")

	resizeCmd.Flags().String("top", "", "New start time (HH:MM)")
	resizeCmd.Flags().String("bottom", "", "New end time (HH:MM)")
	resizeCmd.MarkFlagsOneRequired("top", "bottom")
	resizeCmd.MarkFlagsMutuallyExclusive("top", "bottom")

	doneCmd.Flags().Bool("undo", false, "Mark the event as not completed")
}

// addRequest is the parsed form of 'plan add'.
type addRequest struct {
	Title       string
	Date        string
	Start       string
	End         string
	Duration    time.Duration
	Category    string
	Description string
	Repeat      string
	Every       int
	Until       string
}

// buildEvent turns an add request into an unsaved event.
func buildEvent(req addRequest, now time.Time) (core.Event, error) {
	day, err := parseDate(req.Date, now)
	if err != nil {
		return core.Event{}, err
	}
	startMin, err := parseClock(req.Start)
	if err != nil {
		return core.Event{}, err
	}

	cat, ok := core.LookupCategory(req.Category)
	if !ok {
		return core.Event{}, fmt.Errorf("unknown category %q (use work, personal, fitness, meeting, education or other)", req.Category)
	}

	ev := core.Event{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    cat,
		Start:       geometry.AtMinutes(day, startMin),
	}
	if ev.Title == "" {
		return core.Event{}, errors.New("title is required")
	}

	if req.End != "" {
		endMin, err := parseClock(req.End)
		if err != nil {
			return core.Event{}, err
		}
		ev.End = geometry.AtMinutes(day, endMin)
	} else {
		ev.End = ev.Start.Add(req.Duration)
	}
	if err := ev.Validate(); err != nil {
		return core.Event{}, err
	}

	freq, err := core.ParseFrequency(req.Repeat)
	if err != nil {
		return core.Event{}, err
	}
	if freq != core.FrequencyNone {
		if req.Until == "" {
			return core.Event{}, fmt.Errorf("%w: --until is required with --repeat", core.ErrInvalidRepeat)
		}
		until, err := parseDate(req.Until, now)
		if err != nil {
			return core.Event{}, err
		}
		// Occurrences starting any time on the last day are included
		until = until.AddDate(0, 0, 1).Add(-time.Second)
		if until.Before(ev.Start) {
			return core.Event{}, fmt.Errorf("%w: --until is before the event starts", core.ErrInvalidRepeat)
		}
		ev.Repeat = core.RepeatRule{Frequency: freq, Interval: req.Every, Until: until}
	}

	return ev, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	req := addRequest{Title: strings.Join(args, " ")}
	req.Date, _ = cmd.Flags().GetString("date")
	req.Start, _ = cmd.Flags().GetString("start")
	req.End, _ = cmd.Flags().GetString("end")
	req.Duration, _ = cmd.Flags().GetDuration("duration")
	req.Category, _ = cmd.Flags().GetString("category")
	req.Description, _ = cmd.Flags().GetString("description")
	req.Repeat, _ = cmd.Flags().GetString("repeat")
	req.Every, _ = cmd.Flags().GetInt("every")
	req.Until, _ = cmd.Flags().GetString("until")

	ev, err := buildEvent(req, time.Now())
	if err != nil {
		return err
	}

	ev, err = store.UpsertEvent(cmd.Context(), ev)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	fmt.Printf("✓ Added %q on %s (id %d)\n", ev.Title, formatEventTime(ev.Start, ev.End), ev.ID)
	if desc := ev.Repeat.Describe(); desc != "" {
		fmt.Printf("  ↻ %s\n", desc)
	}
	return nil
}

// dropAt replays a drag of ev onto day through the grid controller. The
// surface is one unit per minute, so pointer is the minute of the day the
// gesture ends on.
func dropAt(ctx context.Context, s core.Storage, log *zap.Logger, ev core.Event, kind grid.Kind, day time.Time, pointer int) (grid.Commit, bool, error) {
	ctrl := grid.NewController(s, log)
	if err := ctrl.BeginDrag(core.Single(ev), kind, 0); err != nil {
		return grid.Commit{}, false, err
	}
	surface := grid.Surface{
		Day:    calendar.StartOfDay(day),
		Top:    0,
		Height: geometry.MinutesPerDay,
	}
	return ctrl.Drop(ctx, surface, float64(pointer))
}

func reportDrop(commit grid.Commit, ok bool, ev core.Event) {
	if !ok {
		fmt.Printf("Nothing to change: %q stays at %s\n", ev.Title, formatEventTime(ev.Start, ev.End))
		return
	}
	fmt.Printf("✓ %s %q to %s\n", commit.Kind, ev.Title, formatEventTime(commit.Start, commit.End))
}

func runMove(cmd *cobra.Command, args []string) error {
	ev, err := store.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	atStr, _ := cmd.Flags().GetString("at")
	at, err := parseClock(atStr)
	if err != nil {
		return err
	}

	day := ev.Start
	if dayStr, _ := cmd.Flags().GetString("day"); dayStr != "" {
		if day, err = parseDate(dayStr, time.Now()); err != nil {
			return err
		}
	}

	commit, ok, err := dropAt(cmd.Context(), store, logger, ev, grid.KindMove, day, at)
	if err != nil {
		return err
	}
	reportDrop(commit, ok, ev)
	return nil
}

func runResize(cmd *cobra.Command, args []string) error {
	ev, err := store.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	kind := grid.KindResizeTop
	edge, _ := cmd.Flags().GetString("top")
	if cmd.Flags().Changed("bottom") {
		kind = grid.KindResizeBottom
		edge, _ = cmd.Flags().GetString("bottom")
	}
	at, err := parseClock(edge)
	if err != nil {
		return err
	}

	commit, ok, err := dropAt(cmd.Context(), store, logger, ev, kind, ev.Start, at)
	if err != nil {
		return err
	}
	reportDrop(commit, ok, ev)
	return nil
}

func runDone(cmd *cobra.Command, args []string) error {
	ev, err := store.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	undo, _ := cmd.Flags().GetBool("undo")
	if err := store.SetCompleted(cmd.Context(), ev.ID, !undo); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	if undo {
		fmt.Printf("✓ %q marked as not done\n", ev.Title)
	} else {
		fmt.Printf("✓ %q marked as done\n", ev.Title)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ev, err := store.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := store.DeleteEvent(cmd.Context(), ev.ID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	fmt.Printf("✓ Deleted %q\n", ev.Title)
	if ev.Repeat.Active() {
		fmt.Printf("  (including its repetitions, %s)\n", ev.Repeat.Describe())
	}
	return nil
}
