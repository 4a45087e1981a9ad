package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/theakshaypant/opengym/internal/adapter/google"
	"github.com/theakshaypant/opengym/internal/adapter/ics"
	"github.com/theakshaypant/opengym/internal/adapter/outlook"
	"github.com/theakshaypant/opengym/internal/cache"
	"github.com/theakshaypant/opengym/internal/core"
	"github.com/theakshaypant/opengym/internal/logging"
	"github.com/theakshaypant/opengym/internal/refresh"
	"github.com/theakshaypant/opengym/internal/schedule"
	"github.com/theakshaypant/opengym/internal/util"
)

// CalendarAdapter extends core.Provider with login and calendar listing.
// The Google, Outlook and ICS adapters all implement it.
type CalendarAdapter interface {
	core.Provider
	Login(ctx context.Context) error
	Calendars() map[string]string
}

var (
	cfgFile   string
	profile   string
	adapter   CalendarAdapter
	logger    = zap.NewNop()
	refresher *refresh.Refresher
)

var rootCmd = &cobra.Command{
	Use:   "opengym",
	Short: "Open gym sessions, lessons and the countdown to the next one",
	Long: `opengym reads a gym's calendar (Google, Outlook or a public ICS feed) and
lays the next three weeks out as an hour grid, with a countdown to the next
open session and a rough crowd level.

Run without a subcommand to print one week; 'opengym ui' opens the grid.`,
	PersistentPreRunE: initAdapter,
	PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
	RunE:              listWeek,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/opengym/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "config profile to use (e.g., downtown, campus)")
	rootCmd.PersistentFlags().Bool("loose", false, "Pad the hour range to 07:00-21:00 instead of fitting it to the events")
	rootCmd.PersistentFlags().String("timezone", "", "IANA time zone to show the schedule in (default: local)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.Flags().IntP("week", "w", 0, "Week to print: 0 this week, 1 next week, 2 the week after")

	viper.BindPFlag("loose", rootCmd.PersistentFlags().Lookup("loose"))
	viper.BindPFlag("timezone", rootCmd.PersistentFlags().Lookup("timezone"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "opengym"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("OPENGYM")
	viper.AutomaticEnv()

	viper.SetDefault("provider", "google")
	viper.SetDefault("credentials_file", "credentials.json")
	viper.SetDefault("token_file", "token.json")
	viper.SetDefault("crowd_capacity", 40)
	viper.SetDefault("env", "development")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	applyProfile()
}

// profileSettings are the keys a profile may override.
var profileSettings = []string{
	"provider",
	"credentials_file",
	"token_file",
	"api_key",
	"calendar_id",
	"client_id",
	"tenant_id",
	"ics_url",
	"timezone",
	"cache_file",
	"loose",
	"crowd_capacity",
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

	// A flag given on the command line still beats the profile.
	for _, key := range profileSettings {
		profileSettingKey := profileKey + "." + key
		if viper.IsSet(profileSettingKey) && !isFlagExplicitlySet(key) {
			viper.Set(key, viper.Get(profileSettingKey))
		}
	}
}

func isFlagExplicitlySet(viperKey string) bool {
	flagName := strings.ReplaceAll(viperKey, "_", "-")
	f := rootCmd.PersistentFlags().Lookup(flagName)

	return f != nil && f.Changed
}

func skipsAdapter(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", "profile", "auth":
		return true
	}
	return cmd.Parent() != nil && cmd.Parent().Name() == "profile"
}

func initAdapter(cmd *cobra.Command, args []string) error {
	if skipsAdapter(cmd) {
		return nil
	}

	if err := initLogger(cmd.Name() == "ui"); err != nil {
		return err
	}

	loc, err := displayLocation(viper.GetString("timezone"))
	if err != nil {
		return err
	}

	switch provider := viper.GetString("provider"); provider {
	case "google":
		err = initGoogleAdapter(cmd)
	case "outlook":
		err = initOutlookAdapter(cmd)
	case "ics":
		err = initICSAdapter(cmd, loc)
	default:
		return fmt.Errorf("unknown provider: %s (supported: google, outlook, ics)", provider)
	}
	if err != nil {
		return err
	}

	refresher = refresh.New(adapter, snapshotStore(), logger, refresh.WithLocation(loc))
	return nil
}

// initLogger builds the process logger. The TUI owns the terminal, so unless
// a log file is configured its output goes to the cache directory.
func initLogger(tui bool) error {
	output := viper.GetString("log_file")
	if output == "" && tui {
		if dir, err := os.UserCacheDir(); err == nil {
			if err := os.MkdirAll(filepath.Join(dir, "opengym"), 0o700); err == nil {
				output = filepath.Join(dir, "opengym", "opengym.log")
			}
		}
	}

	l, err := logging.New(logging.Options{
		Env:    viper.GetString("env"),
		Level:  viper.GetString("log_level"),
		Output: expandPath(output),
	})
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func displayLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

func snapshotStore() core.SnapshotStore {
	path := expandPath(viper.GetString("cache_file"))
	if path == "" {
		p, err := cache.DefaultPath()
		if err != nil {
			logger.Warn("no cache directory, snapshots stay in memory", zap.Error(err))
			return nil
		}
		path = p
	}
	return cache.NewFileStore(path)
}

func initGoogleAdapter(cmd *cobra.Command) error {
	cfg := google.Config{
		APIKey:          viper.GetString("api_key"),
		CredentialsFile: expandPath(viper.GetString("credentials_file")),
		TokenFile:       expandPath(viper.GetString("token_file")),
		CalendarIDs:     splitList(viper.GetString("calendar_id")),
	}

	if cfg.APIKey == "" {
		if _, err := os.Stat(cfg.CredentialsFile); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("credentials file not found: %s\n\nSet api_key for a public calendar, or add OAuth credentials", cfg.CredentialsFile)
		}
		if _, err := os.Stat(cfg.TokenFile); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("token file not found: %s\n\nRun 'opengym auth' to authenticate", cfg.TokenFile)
		}
	}

	adapter = google.NewGoogleAdapter("google", "Google Calendar", cfg, logger)

	if err := adapter.Login(cmd.Context()); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

func initOutlookAdapter(cmd *cobra.Command) error {
	clientID := viper.GetString("client_id")
	if clientID == "" {
		return fmt.Errorf("client_id not configured for Outlook provider\n\nAdd it to your profile config:\n  client_id: \"your-azure-app-client-id\"")
	}

	tokenFile := expandPath(viper.GetString("token_file"))
	if _, err := os.Stat(tokenFile); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("token file not found: %s\n\nRun 'opengym auth' to authenticate with Microsoft", tokenFile)
	}

	adapter = outlook.NewOutlookAdapter("outlook", "Outlook Calendar", outlook.Config{
		ClientID:    clientID,
		TenantID:    viper.GetString("tenant_id"),
		TokenFile:   tokenFile,
		CalendarIDs: splitList(viper.GetString("calendar_id")),
	}, logger)

	if err := adapter.Login(cmd.Context()); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

func initICSAdapter(cmd *cobra.Command, loc *time.Location) error {
	feedURL := viper.GetString("ics_url")
	if feedURL == "" {
		return fmt.Errorf("ics_url not configured for the ics provider\n\nAdd it to your profile config:\n  ics_url: \"https://example.com/gym.ics\"")
	}

	adapter = ics.NewICSAdapter("ics", "Gym calendar", feedURL, loc, logger)

	if err := adapter.Login(cmd.Context()); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

// loadSnapshot seeds from the cache and refreshes once. A failed refresh
// falls back to the cached snapshot when there is one.
func loadSnapshot(ctx context.Context) (core.Snapshot, error) {
	cached := refresher.Seed()
	snap, err := refresher.Refresh(ctx)
	if err != nil {
		if cached.Empty() {
			return core.Snapshot{}, fmt.Errorf("failed to fetch events: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Warning: %v (showing schedule cached %s)\n",
			err, cached.FetchedAt.In(refresher.Location()).Format("Jan 2 15:04"))
		return refresher.Current(), nil
	}
	return snap, nil
}

func listWeek(cmd *cobra.Command, args []string) error {
	week, _ := cmd.Flags().GetInt("week")
	if week < 0 || week >= schedule.WeekCount {
		return fmt.Errorf("--week must be between 0 and %d", schedule.WeekCount-1)
	}

	snap, err := loadSnapshot(cmd.Context())
	if err != nil {
		return err
	}

	sched := schedule.Build(snap.Events, refresher.Now())
	printWeek(cmd.OutOrStdout(), sched.Weeks[week], !viper.GetBool("loose"))
	return nil
}

// printWeek writes one week as text: the hour range the grid would use and
// each day's events in start order.
func printWeek(w io.Writer, week schedule.WeekView, strict bool) {
	bounds := schedule.DayBounds(week.Days, strict)

	fmt.Fprintf(w, "%s  %02d:00-%02d:00\n", week.Label, bounds.Min, bounds.Max)
	fmt.Fprintln(w, "─────────────────────────────────────────────────")

	total := 0
	for _, day := range week.Days {
		fmt.Fprintf(w, "\n%s\n", day.Date.Format("Mon, Jan 2"))
		if len(day.Events) == 0 {
			fmt.Fprintln(w, "  nothing scheduled")
			continue
		}
		for _, e := range day.AllDay() {
			fmt.Fprintf(w, "  all day      %s\n", e.Title)
		}
		for _, e := range day.Timed() {
			title := util.PadRight(util.Truncate(e.Title, 24), 24)
			fmt.Fprintf(w, "  %s-%s  %s [%s]\n", e.Start.Format("15:04"), e.End.Format("15:04"), title, e.Kind)
		}
		total += len(day.Events)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "─────────────────────────────────────────────────")
	fmt.Fprintf(w, "Total: %d events\n", total)
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

// splitList splits a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
