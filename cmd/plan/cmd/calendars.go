package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theakshaypant/plan/internal/adapter/google"
	"github.com/theakshaypant/plan/internal/adapter/outlook"
	"github.com/theakshaypant/plan/internal/core"
)

// CalendarAdapter extends core.Importer with login and calendar listing.
// Both Google and Outlook adapters implement this interface.
type CalendarAdapter interface {
	core.Importer
	Login(ctx context.Context) error
	Calendars() map[string]string
}

var calendarsCmd = &cobra.Command{
	Use:     "calendars",
	Aliases: []string{"cal", "cals"},
	Short:   "List remote calendars you can import from",
	Long: `List all calendars the configured provider gives you access to, including
primary, shared, and subscribed calendars.`,
	RunE: runCalendars,
}

func init() {
	rootCmd.AddCommand(calendarsCmd)
	calendarsCmd.Flags().String("provider", "", "Calendar provider (google, outlook); defaults to the configured one")
}

// providerFor returns the --provider flag of cmd, or the configured provider.
func providerFor(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("provider"); f != nil && f.Changed {
		return f.Value.String()
	}
	return viper.GetString("provider")
}

// connect builds the adapter for provider and logs in with the saved token.
func connect(ctx context.Context, provider string) (CalendarAdapter, error) {
	var adapter CalendarAdapter

	switch provider {
	case "google":
		credsFile := expandPath(viper.GetString("credentials_file"))
		tokenFile := expandPath(viper.GetString("token_file"))

		if _, err := os.Stat(credsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("credentials file not found: %s\n\nDownload an OAuth client (Desktop app) from the Google Cloud console and save it there", credsFile)
		}
		if _, err := os.Stat(tokenFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("token file not found: %s\n\nRun 'plan auth --provider google' to authenticate", tokenFile)
		}
		adapter = google.NewGoogleAdapter("google", "Google Calendar", credsFile, tokenFile, logger)

	case "outlook":
		clientID := viper.GetString("client_id")
		if clientID == "" {
			return nil, fmt.Errorf("client_id not configured for Outlook provider\n\nAdd it to your profile config:\n  client_id: \"your-azure-app-client-id\"")
		}
		tokenFile := expandPath(viper.GetString("token_file"))
		if _, err := os.Stat(tokenFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("token file not found: %s\n\nRun 'plan auth --provider outlook' to authenticate with Microsoft", tokenFile)
		}
		adapter = outlook.NewOutlookAdapter("outlook", "Outlook Calendar", clientID, viper.GetString("tenant_id"), tokenFile, logger)

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: google, outlook)", provider)
	}

	if err := adapter.Login(ctx); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return adapter, nil
}

func runCalendars(cmd *cobra.Command, args []string) error {
	adapter, err := connect(cmd.Context(), providerFor(cmd))
	if err != nil {
		return err
	}
	calendars := adapter.Calendars()

	ids := make([]string, 0, len(calendars))
	for id := range calendars {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return calendars[ids[i]] < calendars[ids[j]] })

	fmt.Printf("📅 %s calendars:\n", adapter.Name())
	fmt.Println("─────────────────────────────────────────────────")

	for _, id := range ids {
		fmt.Printf("\n  • %s\n", calendars[id])
		fmt.Printf("    ID: %s\n", id)
	}

	fmt.Println()
	fmt.Printf("Total: %d calendars\n", len(calendars))
	fmt.Printf("\nTip: Use 'plan import %s --calendars \"calendar name\"' to import from one calendar\n", adapter.ID())

	return nil
}

// resolveCalendarNames maps calendar IDs or case-insensitive name fragments
// to calendar IDs. Names that match nothing are dropped.
func resolveCalendarNames(names []string, calendars map[string]string) []string {
	var ids []string

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		nameLower := strings.ToLower(name)

		if _, exists := calendars[name]; exists {
			ids = append(ids, name)
			continue
		}

		// Deterministic pick when several calendars contain the fragment
		var matches []string
		for id, calName := range calendars {
			if strings.Contains(strings.ToLower(calName), nameLower) {
				matches = append(matches, id)
			}
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			ids = append(ids, matches[0])
		}
	}

	return ids
}
