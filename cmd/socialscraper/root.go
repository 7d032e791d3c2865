package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"socialscraper/pkg/auth"
	"socialscraper/pkg/config"
	"socialscraper/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	logFormat     string
	dbPath        string
	recordExpires time.Duration
	quiet         bool
)

var rootCmd = &cobra.Command{
	Use:   "socialscraper",
	Short: "Import Instagram and Twitter posts into a local database",
	Long: `socialscraper fetches recent posts from the Instagram and Twitter APIs,
by hashtag or by account, and stores them with their authors and tags.

Identical requests are skipped while a recent scrape record exists, so the
import can run from cron or behind the HTTP endpoint without hammering the
APIs.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || cmd.Name() == "help" || cmd.Name() == "serve" {
			return
		}
		printer().Banner()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printer().Error("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.socialscraper.yaml or ~/.config/socialscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database path")
	rootCmd.PersistentFlags().DurationVar(&recordExpires, "record-expires", -1, "freshness window of scrape records, 0 disables it")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`socialscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func printer() *ui.Printer {
	return ui.NewPrinter(os.Stdout)
}

// globalFlags collects the persistent flags the config layer understands
func globalFlags() map[string]interface{} {
	flags := map[string]interface{}{
		"log-level":  logLevel,
		"log-format": logFormat,
		"db":         dbPath,
	}
	if recordExpires >= 0 {
		flags["record-expires"] = recordExpires
	}
	if quiet && logLevel == "" {
		flags["log-level"] = "error"
	}
	return flags
}

// loadConfig loads the layered config and fills missing API secrets from
// the credential store.
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := globalFlags()
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if manager, err := auth.NewManager(); err == nil {
		manager.ApplyTo(cfg)
	}
	return cfg, nil
}
