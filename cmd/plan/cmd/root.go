package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/calendar"
	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/logging"
	"github.com/theakshaypant/plan/internal/recurrence"
	"github.com/theakshaypant/plan/internal/storage"
)

var (
	cfgFile string
	profile string

	logger *zap.Logger
	kv     *storage.KV
	store  *storage.EventStore
)

var rootCmd = &cobra.Command{
	Use:   "plan",
	Short: "A terminal day planner with a drag-and-drop calendar grid",
	Long: `plan keeps your events, repeating routines and work sessions in one local file
and shows them as day, week and month grids in your terminal.

Run 'plan ui' for the interactive calendar. Without a subcommand, plan lists
the upcoming occurrences.`,
	PersistentPreRunE: openStore,
	RunE:              listEvents,
	SilenceUsage:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (inherited by all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/plan/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "config profile to use (e.g., work, personal)")
	rootCmd.PersistentFlags().String("data-file", "", "event data file (default is $HOME/.config/plan/data.json)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	// Filter flags
	rootCmd.PersistentFlags().IntP("days", "d", 7, "Number of days to show (ignored if --from/--to specified)")
	rootCmd.PersistentFlags().String("from", "", "Start date (YYYY-MM-DD, 'today', 'tomorrow', 'monday', etc.)")
	rootCmd.PersistentFlags().String("to", "", "End date (YYYY-MM-DD, 'today', 'tomorrow', 'monday', etc.)")
	rootCmd.PersistentFlags().StringP("categories", "c", "", "Comma-separated categories to show (work, personal, fitness, meeting, education, other)")
	rootCmd.PersistentFlags().StringP("search", "s", "", "Only show events whose title or description contains this text")

	// Bind persistent flags to viper
	viper.BindPFlag("data_file", rootCmd.PersistentFlags().Lookup("data-file"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("days", rootCmd.PersistentFlags().Lookup("days"))
	viper.BindPFlag("from", rootCmd.PersistentFlags().Lookup("from"))
	viper.BindPFlag("to", rootCmd.PersistentFlags().Lookup("to"))
	viper.BindPFlag("categories", rootCmd.PersistentFlags().Lookup("categories"))
	viper.BindPFlag("search", rootCmd.PersistentFlags().Lookup("search"))
}

func configDir() string {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	return filepath.Join(home, ".config", "plan")
}

func initConfig() {
	// .env files only fill variables that are not already set
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(configDir(), ".env"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("PLAN")
	viper.AutomaticEnv()
	viper.BindEnv("gemini_api_key", "PLAN_GEMINI_API_KEY", "GEMINI_API_KEY")

	// Set defaults
	viper.SetDefault("data_file", filepath.Join(configDir(), "data.json"))
	viper.SetDefault("provider", "google")
	viper.SetDefault("credentials_file", filepath.Join(configDir(), "credentials.json"))
	viper.SetDefault("token_file", filepath.Join(configDir(), "token.json"))
	viper.SetDefault("tenant_id", "common")
	viper.SetDefault("days", 7)
	viper.SetDefault("gemini_model", "gemini-2.5-flash")

	// Read config file if it exists
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Apply profile settings if specified
	applyProfile()
}

// profileSettings are the keys a profile may override.
var profileSettings = []string{
	"provider",
	"credentials_file",
	"token_file",
	"client_id",
	"tenant_id",
	"data_file",
	"days",
	"from",
	"to",
	"categories",
	"search",
	"gemini_model",
	"log_level",
	"log_file",
}

// applyProfile merges profile-specific settings over defaults
func applyProfile() {
	activeProfile := profile
	if activeProfile == "" {
		activeProfile = viper.GetString("default_profile")
	}
	if activeProfile == "" {
		return
	}

	profileKey := "profiles." + activeProfile
	if !viper.IsSet(profileKey) {
		fmt.Fprintf(os.Stderr, "Warning: profile '%s' not found in config\n", activeProfile)
		return
	}

	fmt.Fprintf(os.Stderr, "Using profile: %s\n", activeProfile)

	// Explicit CLI flags win over the profile.
	for _, key := range profileSettings {
		profileSettingKey := profileKey + "." + key
		if viper.IsSet(profileSettingKey) && !isFlagExplicitlySet(key) {
			viper.Set(key, viper.Get(profileSettingKey))
		}
	}

	for _, key := range displaySettings {
		profileSettingKey := profileKey + ".display." + key
		if viper.IsSet(profileSettingKey) {
			viper.Set("display."+key, viper.Get(profileSettingKey))
		}
	}
}

func isFlagExplicitlySet(viperKey string) bool {
	flagName := strings.ReplaceAll(viperKey, "_", "-")
	f := rootCmd.PersistentFlags().Lookup(flagName)

	return f != nil && f.Changed
}

// openStore builds the logger and opens the data file.
func openStore(cmd *cobra.Command, args []string) error {
	// Skip for commands that don't touch local data
	if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "profile" ||
		cmd.Parent() != nil && cmd.Parent().Name() == "profile" {
		return nil
	}

	logFile := expandPath(viper.GetString("log_file"))
	if logFile == "" && cmd.Name() == "ui" {
		// Keep log lines off the alternate screen
		logFile = filepath.Join(configDir(), "plan.log")
	}
	var err error
	logger, err = logging.New(viper.GetString("log_level"), logFile)
	if err != nil {
		return err
	}

	dataFile := expandPath(viper.GetString("data_file"))
	kv, err = storage.Open(dataFile)
	if err != nil {
		return fmt.Errorf("failed to open data file %s: %w", dataFile, err)
	}
	store = storage.NewEventStore(kv, storage.WithLogger(logger))
	logger.Debug("data file opened", zap.String("path", dataFile))

	return nil
}

// dateRange resolves --from/--to/--days into a half-open window.
func dateRange(now time.Time) (start, end time.Time, err error) {
	fromStr := viper.GetString("from")
	toStr := viper.GetString("to")
	days := viper.GetInt("days")
	if days <= 0 {
		days = 1
	}

	start = calendar.StartOfDay(now)
	if fromStr != "" {
		if start, err = parseDate(fromStr, now); err != nil {
			return start, end, err
		}
	}

	if toStr != "" {
		if end, err = parseDate(toStr, now); err != nil {
			return start, end, err
		}
		// Include the whole end day
		end = end.AddDate(0, 0, 1)
	} else {
		end = start.AddDate(0, 0, days)
	}

	if !end.After(start) {
		return start, end, fmt.Errorf("--to (%s) is before --from (%s)", toStr, start.Format("2006-01-02"))
	}
	return start, end, nil
}

// viewFilter builds the category and search filter from config/flags.
func viewFilter() calendar.Filter {
	var f calendar.Filter
	if cats := viper.GetString("categories"); cats != "" {
		f.Categories = calendar.CategorySet(strings.Split(cats, ","))
	}
	f.Query = viper.GetString("search")
	return f
}

// occurrencesBetween expands the store over [start, end) and applies the
// view filter.
func occurrencesBetween(cmd *cobra.Command, start, end, now time.Time) ([]core.Occurrence, error) {
	events, err := store.ListEvents(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	exp := recurrence.ExpandAll(events, recurrence.Window{From: start, To: end}, now)
	for _, id := range exp.Truncated {
		logger.Warn("repeating event truncated",
			zap.Int64("series", id),
			zap.Int("max_occurrences", recurrence.MaxOccurrences))
	}
	return viewFilter().Apply(exp.Occurrences), nil
}

func listEvents(cmd *cobra.Command, args []string) error {
	now := time.Now()
	start, end, err := dateRange(now)
	if err != nil {
		return err
	}

	occ, err := occurrencesBetween(cmd, start, end, now)
	if err != nil {
		return err
	}

	fmt.Printf("📅 Events from %s to %s:\n", start.Format("Jan 2"), end.AddDate(0, 0, -1).Format("Jan 2"))
	fmt.Println("─────────────────────────────────────────────────")

	if len(occ) == 0 {
		fmt.Println("No events found.")
		return nil
	}

	opts := DisplayOptionsFromConfig(false)
	var day time.Time
	for _, o := range occ {
		if !calendar.SameDay(o.Start, day) {
			day = o.Start
			fmt.Printf("\n%s\n", day.Format("Monday, Jan 2"))
		}
		fmt.Println()
		DisplayOccurrence(o, now, opts)
	}

	fmt.Println("─────────────────────────────────────────────────")
	fmt.Printf("Total: %d events\n", len(occ))

	return nil
}

// parseDate parses a date string in various formats
// Supports: YYYY-MM-DD, "today", "tomorrow", "yesterday", weekday names
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	today := calendar.StartOfDay(now)

	switch s {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	weekdays := map[string]time.Weekday{
		"sunday": time.Sunday, "sun": time.Sunday,
		"monday": time.Monday, "mon": time.Monday,
		"tuesday": time.Tuesday, "tue": time.Tuesday,
		"wednesday": time.Wednesday, "wed": time.Wednesday,
		"thursday": time.Thursday, "thu": time.Thursday,
		"friday": time.Friday, "fri": time.Friday,
		"saturday": time.Saturday, "sat": time.Saturday,
	}

	// Handle "next <weekday>"
	dayName := strings.TrimPrefix(s, "next ")
	if wd, ok := weekdays[dayName]; ok {
		daysUntil := int(wd - today.Weekday())
		if daysUntil <= 0 {
			daysUntil += 7
		}
		return today.AddDate(0, 0, daysUntil), nil
	}

	loc := now.Location()
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}

	// MM-DD and MM/DD in the current year
	for _, layout := range []string{"01-02", "01/02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
		}
	}

	if t, err := time.ParseInLocation("01/02/2006", s, loc); err == nil {
		return t, nil
	}

	return now, fmt.Errorf("unable to parse date: %s (use YYYY-MM-DD, 'today', 'tomorrow', or weekday names)", s)
}

// parseClock parses HH:MM into minutes after midnight. 24:00 is accepted as
// the end of the day.
func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("unable to parse time: %s (use HH:MM, e.g. 09:30 or 14:00)", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
