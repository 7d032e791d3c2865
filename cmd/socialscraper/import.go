package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"socialscraper/pkg/importer"
	"socialscraper/pkg/instagram"
	"socialscraper/pkg/models"
	"socialscraper/pkg/store"
	"socialscraper/pkg/twitter"
)

var (
	importScrapers   []string
	importRequest    string
	importTags       []string
	importCount      int
	importUserID     string
	importScreenName string
	importMaxPages   int
	importDryRun     bool
	importConfirm    bool
	importLinks      bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the latest posts from social networks",
	Long: `Import the latest posts from one or more social networks.

Without --tags or --request the configured account's own posts are
imported. A request identical to one made within the freshness window is
skipped and reported as a notice.`,
	Example: `  # Recent #football posts from both networks
  socialscraper import --scrapers instagram,twitter --tags football

  # The configured Twitter account's timeline, 50 tweets per page
  socialscraper import --scrapers twitter --count 50

  # A preset declared under "requests" in the config file
  socialscraper import --scrapers instagram --request football`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringSliceVarP(&importScrapers, "scrapers", "s", nil, "networks to import from (instagram, twitter)")
	importCmd.Flags().StringVarP(&importRequest, "request", "r", "", "named request preset from the config file")
	importCmd.Flags().StringSliceVarP(&importTags, "tags", "t", nil, "hashtags to import, comma separated")
	importCmd.Flags().IntVar(&importCount, "count", 0, "items per page, capped by each network")
	importCmd.Flags().StringVar(&importUserID, "user-id", "", "account id to import instead of the configured one")
	importCmd.Flags().StringVar(&importScreenName, "screen-name", "", "Twitter screen name to import instead of the configured one")
	importCmd.Flags().IntVar(&importMaxPages, "max-pages", 0, "stop after this many pages, 0 for no limit")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "show what would be imported without calling any API")
	importCmd.Flags().BoolVarP(&importConfirm, "interactive", "i", false, "ask for confirmation before importing")
	importCmd.Flags().BoolVar(&importLinks, "links", false, "list the permalink of every scraped post")
	_ = importCmd.MarkFlagRequired("scrapers")
}

// importValues turns the flags into the option values the HTTP endpoint
// also accepts.
func importValues() url.Values {
	values := url.Values{}
	values.Set("scrapers", strings.Join(importScrapers, ","))
	if importRequest != "" {
		values.Set("request", importRequest)
	}
	if len(importTags) > 0 {
		values.Set("tags", strings.Join(importTags, ","))
	}
	if importCount > 0 {
		values.Set("count", strconv.Itoa(importCount))
	}
	if importUserID != "" {
		values.Set("user_id", importUserID)
	}
	if importScreenName != "" {
		values.Set("screen_name", importScreenName)
	}
	return values
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{"max-pages": importMaxPages})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, err := BuildContainer(cfg)
	if err != nil {
		return err
	}

	return container.Invoke(func(im *importer.Importer, st *store.GormStore) error {
		defer st.Close()

		opts, err := importer.ParseOptions(importValues(), im.Available())
		if err != nil {
			return err
		}

		p := printer()
		if !quiet {
			p.Info("Networks", strings.Join(opts.Scrapers, ", "))
			switch {
			case opts.Request != "":
				p.Info("Request", opts.Request)
			case len(opts.Tags) > 0:
				p.Info("Tags", "#"+strings.Join(opts.Tags, ", #"))
			default:
				p.Info("Request", "configured account")
			}
			fmt.Println()
		}

		if importDryRun {
			p.Dim("Dry run, nothing imported.")
			return nil
		}
		if importConfirm && !confirm(fmt.Sprintf("Import %q?", strings.Join(opts.Scrapers, `", "`))) {
			p.Dim("Canceled import.")
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report := im.Run(ctx, opts)
		if !quiet {
			p.Report(report)
			if importLinks {
				p.Links(report, permalink)
			}
		}

		for _, o := range report.Outcomes {
			if o.Level == importer.LevelError {
				return fmt.Errorf("import finished with status %d", report.Status())
			}
		}
		return nil
	})
}

// permalink resolves the public url of a stored post from its raw payload
func permalink(post *models.Post) string {
	switch post.Network {
	case instagram.NetworkName:
		return instagram.URL(post)
	case twitter.NetworkName:
		return twitter.URL(post)
	default:
		return ""
	}
}

func confirm(question string) bool {
	fmt.Printf("%s (y/N): ", question)
	input, _ := stdin.ReadString('\n')
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y")
}
