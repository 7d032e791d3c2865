package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"socialscraper/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage socialscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (SOCIALSCRAPER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with every available option.

The file is written to ~/.config/socialscraper/config.yaml unless a path is
given with --config.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration, secrets masked",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# socialscraper configuration
#
# Every option can also be set with a SOCIALSCRAPER_ environment variable,
# for example SOCIALSCRAPER_INSTAGRAM_ACCESS_TOKEN or SOCIALSCRAPER_DB_PATH.

database:
  path: "socialscraper.db"
  debug: false

scraper:
  # Persist a scrape record after every fetch
  record: true
  # Skip requests identical to one made within this window; 0 disables it
  record_expires: 1h
  # Failed scrapes also block retries within the window
  suppress_failures: true
  # Stop after this many pages; 0 fetches until the API runs out
  max_pages: 0

instagram:
  enabled: true
  access_token: ""
  # Account imported when no hashtag is given
  user_id: "self"
  # Items per page, at most 20 for sandboxed clients
  count: 20
  timeout: 30s

twitter:
  enabled: true
  # Either a bearer token or a consumer key and secret
  bearer_token: ""
  consumer_key: ""
  consumer_secret: ""
  # Account imported when no hashtag is given; also restricts hashtag searches
  screen_name: ""
  user_id: ""
  count: 200
  timeout: 30s

rate_limit:
  requests_per_minute: 60
  burst_size: 1

retry:
  # 1 disables retries; only network and server errors are retried
  max_attempts: 1
  base_delay: 1s
  max_delay: 30s

server:
  addr: ":8080"

logging:
  # debug, info, warn, error
  level: "info"
  # console, json
  format: "console"
  file: ""

# Named requests for "import --request <name>", per network
requests:
  football:
    instagram:
      repository: tags
      method: getRecentMedia
      filters:
        tag: football
    twitter:
      repository: search
      method: tweets
      filters:
        q: "#football"
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	p := printer()
	p.Success("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store API credentials with 'socialscraper auth set <network>'")
	fmt.Println("2. Run 'socialscraper config validate' to check the configuration")
	fmt.Println("3. Import with 'socialscraper import --scrapers instagram --tags football'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

// maskedConfig copies cfg with every API secret masked
func maskedConfig(cfg *config.Config) *config.Config {
	display := *cfg
	display.Instagram.AccessToken = mask(display.Instagram.AccessToken)
	display.Twitter.ConsumerKey = mask(display.Twitter.ConsumerKey)
	display.Twitter.ConsumerSecret = mask(display.Twitter.ConsumerSecret)
	display.Twitter.BearerToken = mask(display.Twitter.BearerToken)
	return &display
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings []string
	if cfg.Instagram.Enabled && cfg.Instagram.AccessToken == "" {
		warnings = append(warnings, "instagram is enabled but has no access token")
	}
	if cfg.Twitter.Enabled && cfg.Twitter.BearerToken == "" && (cfg.Twitter.ConsumerKey == "" || cfg.Twitter.ConsumerSecret == "") {
		warnings = append(warnings, "twitter is enabled but has no bearer token or consumer key and secret")
	}
	if cfg.Twitter.Enabled && cfg.Twitter.ScreenName == "" && cfg.Twitter.UserID == "" {
		warnings = append(warnings, "twitter has no account; imports without tags need --screen-name or --user-id")
	}
	if cfg.Scraper.RecordExpires == 0 {
		warnings = append(warnings, "record_expires is 0, identical requests are never skipped")
	}

	p := printer()
	for _, w := range warnings {
		p.Warning("  - " + w)
	}

	p.Success("Configuration is valid")
	p.Info("Database", cfg.Database.Path)
	p.Info("Freshness window", cfg.Scraper.RecordExpires.String())
	p.Info("Rate limit", fmt.Sprintf("%d requests/minute", cfg.RateLimit.RequestsPerMinute))
	p.Info("Presets", fmt.Sprintf("%d", len(cfg.Requests)))
	return nil
}
