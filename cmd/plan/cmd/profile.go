package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage configuration profiles",
	Long: `Manage configuration profiles for different data files, accounts and filter presets.

Profiles allow you to quickly switch between, say, a work calendar that only
shows meetings and a personal one with its own data file.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileShow,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAdd,
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSetDefault,
}

var profileEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit a profile's settings",
	Long: `Edit a profile's settings using flags.

Example:
  plan profile edit work --days=14 --categories=work,meeting
  plan profile edit home --data-file=~/plans/home.json --show-id=false`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileEdit,
}

// profileFlag maps a profile command flag to its config key.
type profileFlag struct {
	flag  string
	key   string
	usage string
	// "string", "int" or "bool"
	kind string
	// Written under display.<key>
	display bool
}

var profileFlags = []profileFlag{
	{flag: "provider", key: "provider", usage: "Calendar provider for imports (google, outlook)", kind: "string"},
	{flag: "credentials-file", key: "credentials_file", usage: "Path to Google OAuth credentials file", kind: "string"},
	{flag: "token-file", key: "token_file", usage: "Path to token file", kind: "string"},
	{flag: "client-id", key: "client_id", usage: "Azure app client ID (Outlook)", kind: "string"},
	{flag: "tenant-id", key: "tenant_id", usage: "Azure tenant ID (Outlook)", kind: "string"},
	{flag: "data-file", key: "data_file", usage: "Event data file", kind: "string"},
	{flag: "days", key: "days", usage: "Number of days to show", kind: "int"},
	{flag: "categories", key: "categories", usage: "Category filter", kind: "string"},
	{flag: "search", key: "search", usage: "Search filter", kind: "string"},
	{flag: "gemini-model", key: "gemini_model", usage: "Gemini model for quick add", kind: "string"},
	{flag: "log-level", key: "log_level", usage: "Log level", kind: "string"},
	{flag: "log-file", key: "log_file", usage: "Log file", kind: "string"},

	{flag: "show-category", key: "category", usage: "Show category", kind: "bool", display: true},
	{flag: "show-time", key: "time", usage: "Show time/duration", kind: "bool", display: true},
	{flag: "show-repeat", key: "repeat", usage: "Show repeat rule", kind: "bool", display: true},
	{flag: "show-link", key: "link", usage: "Show link", kind: "bool", display: true},
	{flag: "show-description", key: "description", usage: "Show description", kind: "bool", display: true},
	{flag: "show-status", key: "status", usage: "Show completion", kind: "bool", display: true},
	{flag: "show-id", key: "id", usage: "Show event ID", kind: "bool", display: true},
	{flag: "show-in-progress", key: "in_progress", usage: "Show in-progress status", kind: "bool", display: true},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileSetDefaultCmd)
	profileCmd.AddCommand(profileEditCmd)

	addProfileFlags(profileAddCmd.Flags())
	addProfileFlags(profileEditCmd.Flags())
}

func addProfileFlags(fs *pflag.FlagSet) {
	for _, pf := range profileFlags {
		switch pf.kind {
		case "int":
			fs.Int(pf.flag, 0, pf.usage)
		case "bool":
			fs.Bool(pf.flag, false, pf.usage)
		default:
			fs.String(pf.flag, "", pf.usage)
		}
	}
}

// applyProfileFlags copies every changed flag of fs into profile and
// reports whether anything changed.
func applyProfileFlags(fs *pflag.FlagSet, profile map[string]interface{}) bool {
	display, ok := profile["display"].(map[string]interface{})
	if !ok {
		display = make(map[string]interface{})
	}

	changed := false
	for _, pf := range profileFlags {
		if !fs.Changed(pf.flag) {
			continue
		}
		var val interface{}
		switch pf.kind {
		case "int":
			val, _ = fs.GetInt(pf.flag)
		case "bool":
			val, _ = fs.GetBool(pf.flag)
		default:
			val, _ = fs.GetString(pf.flag)
		}
		if pf.display {
			display[pf.key] = val
		} else {
			profile[pf.key] = val
		}
		changed = true
	}

	if len(display) > 0 {
		profile["display"] = display
	}
	return changed
}

func runProfileList(cmd *cobra.Command, args []string) error {
	profiles := viper.GetStringMap("profiles")
	defaultProfile := viper.GetString("default_profile")

	if len(profiles) == 0 {
		fmt.Println("No profiles configured.")
		fmt.Println("\nAdd one with: plan profile add <name> --data-file=<path>")
		return nil
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available profiles:")
	fmt.Println("─────────────────────────────────────────────────")

	for _, name := range names {
		marker := "  "
		if name == defaultProfile {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, name)
	}

	fmt.Println("─────────────────────────────────────────────────")
	if defaultProfile != "" {
		fmt.Printf("Default: %s\n", defaultProfile)
	}
	fmt.Println("\nUse 'plan profile show <name>' for details")

	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	var profileName string
	if len(args) > 0 {
		profileName = args[0]
	} else {
		profileName = viper.GetString("default_profile")
		if profileName == "" {
			return fmt.Errorf("no profile specified and no default profile set")
		}
	}

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	settings := viper.GetStringMap(profileKey)

	fmt.Printf("Profile: %s\n", profileName)
	if profileName == viper.GetString("default_profile") {
		fmt.Println("(default)")
	}
	fmt.Println("─────────────────────────────────────────────────")

	fmt.Println("\n📁 Files:")
	printSetting(settings, "data_file", "data-file")
	printSetting(settings, "log_file", "log-file")
	printSetting(settings, "log_level", "log-level")

	fmt.Println("\n🔑 Import accounts:")
	printSetting(settings, "provider", "provider")
	printSetting(settings, "credentials_file", "credentials-file")
	printSetting(settings, "token_file", "token-file")
	printSetting(settings, "client_id", "client-id")
	printSetting(settings, "tenant_id", "tenant-id")
	printSetting(settings, "gemini_model", "gemini-model")

	fmt.Println("\n🔍 Filters:")
	printSetting(settings, "days", "days")
	printSetting(settings, "categories", "categories")
	printSetting(settings, "search", "search")

	if display, ok := settings["display"].(map[string]interface{}); ok && len(display) > 0 {
		fmt.Println("\n👁️  Display:")
		for _, key := range displaySettings {
			printSetting(display, key, "show_"+key)
		}
	}

	fmt.Println()
	return nil
}

func printSetting(settings map[string]interface{}, key, displayKey string) {
	if val, ok := settings[key]; ok {
		fmt.Printf("  %s: %v\n", displayKey, val)
	}
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' already exists. Use 'plan profile edit %s' to modify it", profileName, profileName)
	}

	profile := make(map[string]interface{})
	applyProfileFlags(cmd.Flags(), profile)

	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' created\n", profileName)
	fmt.Printf("\nUse it with: plan -p %s\n", profileName)
	fmt.Printf("Set as default: plan profile default %s\n", profileName)

	return nil
}

func runProfileSetDefault(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	if err := setDefaultProfileInConfig(profileName); err != nil {
		return fmt.Errorf("failed to set default profile: %w", err)
	}

	fmt.Printf("✓ Default profile set to '%s'\n", profileName)
	return nil
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found. Use 'plan profile add %s' to create it", profileName, profileName)
	}

	profile := make(map[string]interface{})
	for k, v := range viper.GetStringMap(profileKey) {
		profile[k] = v
	}

	if !applyProfileFlags(cmd.Flags(), profile) {
		fmt.Println("No changes specified. Use flags to update settings:")
		fmt.Println("  plan profile edit", profileName, "--days=14 --categories=work,meeting")
		return nil
	}

	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' updated\n", profileName)
	return nil
}

// Config file manipulation functions

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(configDir(), "config.yaml")
}

func readConfigFile() (map[string]interface{}, error) {
	data, err := os.ReadFile(getConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]interface{}), nil
		}
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if config == nil {
		config = make(map[string]interface{})
	}

	return config, nil
}

func writeConfigFile(config map[string]interface{}) error {
	configPath := getConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o644)
}

func saveProfileToConfig(name string, profile map[string]interface{}) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	profiles, ok := config["profiles"].(map[string]interface{})
	if !ok {
		profiles = make(map[string]interface{})
	}

	profiles[name] = profile
	config["profiles"] = profiles

	return writeConfigFile(config)
}

func setDefaultProfileInConfig(name string) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	config["default_profile"] = name

	return writeConfigFile(config)
}
