package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/ics"
	"github.com/theakshaypant/plan/internal/storage"
)

// Repeating events without an end are imported up to this far ahead.
const importHorizon = 365 * 24 * time.Hour

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import events from files or remote calendars",
	Long: `Import events into the local calendar. Imports are idempotent: events are
matched by their source id, so importing again updates instead of duplicating.`,
}

var importICSCmd = &cobra.Command{
	Use:   "ics <file.ics>",
	Short: "Import an iCalendar file ('-' for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportICS,
}

// importRemoteCmds are 'plan import google' and 'plan import outlook'.
var importRemoteCmds = []*cobra.Command{
	newImportRemoteCmd("google", "Google Calendar"),
	newImportRemoteCmd("outlook", "Outlook / Office 365"),
}

func newImportRemoteCmd(provider, label string) *cobra.Command {
	return &cobra.Command{
		Use:   provider,
		Short: "Import events from " + label,
		Long: `Import events in the --from/--to/--days window. Repeating events become
repeating local events where the provider shares the rule.

Run 'plan auth --provider ` + provider + `' first.`,
		Args: cobra.NoArgs,
		RunE: runImportRemote,
	}
}

var importLocalStorageCmd = &cobra.Command{
	Use:   "localstorage <dump.json>",
	Short: "Import data exported from the browser version",
	Long: `Import a JSON object of browser localStorage keys, as printed by
JSON.stringify(localStorage) in the developer console. Events, work sessions,
the active categories and the last view are restored.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportLocalStorage,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export events",
}

var exportICSCmd = &cobra.Command{
	Use:   "ics",
	Short: "Export events as an iCalendar file",
	Long: `Export events as iCalendar (RFC 5545). Repeating events are written once with
an RRULE. The --categories and --search filters apply.`,
	RunE: runExportICS,
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	importCmd.AddCommand(importICSCmd)
	importCmd.AddCommand(importLocalStorageCmd)
	exportCmd.AddCommand(exportICSCmd)

	for _, c := range append([]*cobra.Command{importICSCmd}, importRemoteCmds...) {
		c.Flags().String("category", "other", "Category for events without a recognisable one")
		c.Flags().Bool("no-allday", false, "Skip all-day events")
	}
	for _, c := range importRemoteCmds {
		c.Flags().String("calendars", "", "Comma-separated calendar names or IDs (default: all)")
		importCmd.AddCommand(c)
	}

	exportICSCmd.Flags().StringP("output", "o", "-", "Output file ('-' for stdout)")
}

// fetchDefaults reads the flags shared by the import commands.
func fetchDefaults(cmd *cobra.Command) (core.Category, bool, error) {
	catName, _ := cmd.Flags().GetString("category")
	cat, ok := core.LookupCategory(catName)
	if !ok {
		return cat, false, fmt.Errorf("unknown category %q (use work, personal, fitness, meeting, education or other)", catName)
	}
	noAllDay, _ := cmd.Flags().GetBool("no-allday")
	return cat, noAllDay, nil
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(expandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func printSync(source string, res core.SyncResult) {
	fmt.Printf("✓ Imported from %s: %d new, %d updated\n", source, res.Inserted, res.Updated)
}

func runImportICS(cmd *cobra.Command, args []string) error {
	cat, noAllDay, err := fetchDefaults(cmd)
	if err != nil {
		return err
	}

	r, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	events, err := ics.Import(r, ics.ImportOptions{
		Location:        time.Local,
		Horizon:         time.Now().Add(importHorizon),
		DefaultCategory: cat,
		ExcludeAllDay:   noAllDay,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	res, err := store.SyncEvents(cmd.Context(), events)
	if err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}
	printSync(args[0], res)
	return nil
}

func runImportRemote(cmd *cobra.Command, args []string) error {
	cat, noAllDay, err := fetchDefaults(cmd)
	if err != nil {
		return err
	}

	provider := cmd.Name()
	adapter, err := connect(cmd.Context(), provider)
	if err != nil {
		return err
	}

	now := time.Now()
	start, end, err := dateRange(now)
	if err != nil {
		return err
	}

	opts := core.DefaultFetchOptions(start, end)
	opts.DefaultCategory = cat
	opts.ExcludeAllDay = noAllDay

	if calendars, _ := cmd.Flags().GetString("calendars"); calendars != "" {
		calendarIDs := resolveCalendarNames(strings.Split(calendars, ","), adapter.Calendars())
		if len(calendarIDs) == 0 {
			return fmt.Errorf("no matching calendars found for: %s\nUse 'plan calendars --provider %s' to see available calendars", calendars, provider)
		}
		opts.CalendarIDs = calendarIDs
	}

	events, err := adapter.FetchEvents(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}
	logger.Info("fetched remote events",
		zap.String("provider", adapter.ID()),
		zap.Int("count", len(events)),
		zap.Time("from", start),
		zap.Time("to", end))

	res, err := store.SyncEvents(cmd.Context(), events)
	if err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}
	printSync(adapter.Name(), res)
	return nil
}

func runImportLocalStorage(cmd *cobra.Command, args []string) error {
	r, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	res, err := storage.ImportLocalStorage(cmd.Context(), r, kv, storage.WithLogger(logger))
	if err != nil {
		return err
	}

	fmt.Printf("✓ Imported %d events and %d work sessions\n", res.Events, res.Sessions)
	if res.Reassigned > 0 {
		fmt.Printf("  %d entries got a new id\n", res.Reassigned)
	}
	if res.Skipped > 0 {
		fmt.Printf("  %d entries could not be read and were skipped (see the log for details)\n", res.Skipped)
	}
	if res.View {
		fmt.Println("  Restored the last calendar view")
	}
	return nil
}

func runExportICS(cmd *cobra.Command, args []string) error {
	events, err := store.ListEvents(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	filter := viewFilter()
	selected := events[:0]
	for _, ev := range events {
		if filter.Match(ev) {
			selected = append(selected, ev)
		}
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "-" {
		return ics.Export(cmd.OutOrStdout(), selected, time.Now())
	}

	f, err := os.Create(expandPath(output))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := ics.Export(f, selected, time.Now()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Exported %d events to %s\n", len(selected), output)
	return nil
}
