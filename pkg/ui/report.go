package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"socialscraper/pkg/auth"
	"socialscraper/pkg/importer"
	"socialscraper/pkg/models"
)

const indent = "   "

func levelStyle(level string) lipgloss.Style {
	switch level {
	case importer.LevelSuccess:
		return successStyle
	case importer.LevelNotice:
		return noticeStyle
	case importer.LevelWarning:
		return warningStyle
	default:
		return errorStyle
	}
}

// Report prints one line per outcome followed by a summary
func (p *Printer) Report(report *importer.Report) {
	for _, o := range report.Outcomes {
		line := o.Message
		if o.Tag != "" {
			line = fmt.Sprintf("#%s  %s", o.Tag, line)
		}
		fmt.Fprintf(p.out, "%s-  %s\n", indent, p.render(levelStyle(o.Level), line))
	}

	summary := fmt.Sprintf("%d new post(s) in %s", report.Created(), report.Duration.Round(time.Millisecond))
	if report.Success() {
		fmt.Fprintf(p.out, "\n%s%s\n", indent, p.render(successStyle, "Done! "+summary))
		return
	}
	fmt.Fprintf(p.out, "\n%s%s\n", indent, p.render(warningStyle, fmt.Sprintf("Finished with status %d, %s", report.Status(), summary)))
}

// Links prints the permalink of every post a run returned, grouped by network
func (p *Printer) Links(report *importer.Report, link func(*models.Post) string) {
	for _, o := range report.Outcomes {
		if o.Result == nil || len(o.Result.Posts) == 0 {
			continue
		}
		fmt.Fprintln(p.out)
		p.Info(indent+o.Network, fmt.Sprintf("%d post(s)", len(o.Result.Posts)))
		for _, post := range o.Result.Posts {
			if url := link(post); url != "" {
				fmt.Fprintf(p.out, "%s%s%s\n", indent, indent, p.render(dimStyle, url))
			}
		}
	}
}

// Credentials prints masked credentials, one network per block
func (p *Printer) Credentials(list []*auth.Credentials) {
	if len(list) == 0 {
		p.Dim("No stored credentials.")
		return
	}

	for _, creds := range list {
		masked := auth.Sanitize(creds)
		fmt.Fprintln(p.out, p.render(bannerStyle, strings.ToUpper(masked.Network)))

		for _, field := range []struct{ label, value string }{
			{"access token", masked.AccessToken},
			{"consumer key", masked.ConsumerKey},
			{"consumer secret", masked.ConsumerSecret},
			{"bearer token", masked.BearerToken},
		} {
			if field.value != "" {
				p.Info(indent+field.label, field.value)
			}
		}
		if !masked.LastModified.IsZero() {
			p.Dim(indent + "updated " + masked.LastModified.Format(time.RFC822))
		} else {
			p.Dim(indent + "from environment")
		}
	}
}
