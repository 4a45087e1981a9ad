package cmd

import (
	"errors"
	"fmt"
	"io"
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
	Long: `Manage configuration profiles, one per gym or calendar.

A profile overrides the top-level settings when selected with -p or set as
default_profile.`,
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
	Example: `  opengym profile add downtown --provider=ics --ics-url=https://example.com/gym.ics
  opengym profile add club --provider=google --api-key=KEY --calendar-id=club@group.calendar.google.com`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileAdd,
}

var profileEditCmd = &cobra.Command{
	Use:     "edit <name>",
	Short:   "Edit a profile's settings",
	Example: `  opengym profile edit downtown --timezone=Europe/Berlin --crowd-capacity=60`,
	Args:    cobra.ExactArgs(1),
	RunE:    runProfileEdit,
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSetDefault,
}

// profileFlags maps the add/edit flags onto profile keys.
var profileFlags = []struct {
	flag, key, usage string
	kind             string // "string", "bool" or "int"
}{
	{"provider", "provider", "Calendar provider: google, outlook or ics", "string"},
	{"credentials-file", "credentials_file", "Google OAuth client credentials file", "string"},
	{"token-file", "token_file", "OAuth token file", "string"},
	{"api-key", "api_key", "Google API key for a public calendar", "string"},
	{"calendar-id", "calendar_id", "Comma-separated calendar IDs", "string"},
	{"client-id", "client_id", "Azure app client ID (outlook)", "string"},
	{"tenant-id", "tenant_id", "Azure tenant ID (outlook)", "string"},
	{"ics-url", "ics_url", "ICS feed URL", "string"},
	{"timezone", "timezone", "IANA time zone for the schedule", "string"},
	{"cache-file", "cache_file", "Snapshot cache file", "string"},
	{"loose", "loose", "Pad the hour range instead of fitting it", "bool"},
	{"crowd-capacity", "crowd_capacity", "Capacity the crowd level is measured against", "int"},
	{"log-level", "log_level", "Log level", "string"},
	{"log-file", "log_file", "Log file", "string"},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileEditCmd)
	profileCmd.AddCommand(profileSetDefaultCmd)

	for _, c := range []*cobra.Command{profileAddCmd, profileEditCmd} {
		for _, f := range profileFlags {
			switch f.kind {
			case "bool":
				c.Flags().Bool(f.flag, false, f.usage)
			case "int":
				c.Flags().Int(f.flag, 0, f.usage)
			default:
				c.Flags().String(f.flag, "", f.usage)
			}
		}
	}
}

// changedSettings collects the profile flags that were given.
func changedSettings(flags *pflag.FlagSet) map[string]interface{} {
	out := make(map[string]interface{})
	for _, f := range profileFlags {
		if !flags.Changed(f.flag) {
			continue
		}
		switch f.kind {
		case "bool":
			out[f.key], _ = flags.GetBool(f.flag)
		case "int":
			out[f.key], _ = flags.GetInt(f.flag)
		default:
			out[f.key], _ = flags.GetString(f.flag)
		}
	}
	return out
}

func runProfileList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	profiles := viper.GetStringMap("profiles")
	defaultProfile := viper.GetString("default_profile")

	if len(profiles) == 0 {
		fmt.Fprintln(out, "No profiles configured.")
		fmt.Fprintln(out, "\nAdd one with: opengym profile add <name> --provider=ics --ics-url=<url>")
		return nil
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "Available profiles:")
	fmt.Fprintln(out, "─────────────────────────────────────────────────")
	for _, name := range names {
		marker := "  "
		if name == defaultProfile {
			marker = "* "
		}
		fmt.Fprintf(out, "%s%s\n", marker, name)
	}
	fmt.Fprintln(out, "─────────────────────────────────────────────────")
	fmt.Fprintln(out, "\nUse 'opengym profile show <name>' for details")
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	profileName := viper.GetString("default_profile")
	if len(args) > 0 {
		profileName = args[0]
	}
	if profileName == "" {
		return fmt.Errorf("no profile specified and no default profile set")
	}

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	printProfile(cmd.OutOrStdout(), profileName, viper.GetStringMap(profileKey), profileName == viper.GetString("default_profile"))
	return nil
}

func printProfile(w io.Writer, name string, settings map[string]interface{}, isDefault bool) {
	fmt.Fprintf(w, "Profile: %s\n", name)
	if isDefault {
		fmt.Fprintln(w, "(default)")
	}
	fmt.Fprintln(w, "─────────────────────────────────────────────────")
	for _, f := range profileFlags {
		val, ok := settings[f.key]
		if !ok {
			continue
		}
		if f.key == "api_key" {
			val = "********"
		}
		fmt.Fprintf(w, "  %s: %v\n", f.flag, val)
	}
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	profileName := args[0]
	if viper.IsSet("profiles." + profileName) {
		return fmt.Errorf("profile '%s' already exists. Use 'opengym profile edit %s' to modify it", profileName, profileName)
	}

	if err := saveProfileToConfig(profileName, changedSettings(cmd.Flags())); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Profile '%s' created\n\nUse it with: opengym -p %s\n", profileName, profileName)
	return nil
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	profileName := args[0]
	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found. Use 'opengym profile add %s' to create it", profileName, profileName)
	}

	updates := changedSettings(cmd.Flags())
	if len(updates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No changes specified. Use flags to update settings, see --help")
		return nil
	}

	profile := make(map[string]interface{})
	for k, v := range viper.GetStringMap(profileKey) {
		profile[k] = v
	}
	for k, v := range updates {
		profile[k] = v
	}

	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Profile '%s' updated\n", profileName)
	return nil
}

func runProfileSetDefault(cmd *cobra.Command, args []string) error {
	profileName := args[0]
	if !viper.IsSet("profiles." + profileName) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	config, err := readConfigFile(getConfigPath())
	if err != nil {
		return fmt.Errorf("failed to set default profile: %w", err)
	}
	config["default_profile"] = profileName
	if err := writeConfigFile(getConfigPath(), config); err != nil {
		return fmt.Errorf("failed to set default profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Default profile set to '%s'\n", profileName)
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "opengym", "config.yaml")
}

func readConfigFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]interface{}), nil
	}
	if err != nil {
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if config == nil {
		config = make(map[string]interface{})
	}
	return config, nil
}

// writeConfigFile writes with 0600 since the config may hold an API key.
func writeConfigFile(path string, config map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func saveProfileToConfig(name string, profile map[string]interface{}) error {
	path := getConfigPath()
	config, err := readConfigFile(path)
	if err != nil {
		return err
	}

	profiles, ok := config["profiles"].(map[string]interface{})
	if !ok {
		profiles = make(map[string]interface{})
	}
	profiles[name] = profile
	config["profiles"] = profiles

	return writeConfigFile(path, config)
}
