package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/crawler"
	"github.com/amosWeiskopf/siteaudit/pkg/reporter"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [URL]",
	Short: "Crawl a website and print the extracted pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := cli.crawl(cmd, args[0])
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		name, _ := cmd.Flags().GetString("format")
		format, err := reporter.ParseFormat(name)
		if err != nil {
			return err
		}
		return writeOutput(cmd, output, func(w io.Writer) error {
			return encodeCrawl(w, result, format)
		})
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit [URL]",
	Short: "Crawl and audit a website, then print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := cli.crawl(cmd, args[0])
		if err != nil {
			return err
		}

		rep := cli.newReporter()
		report := rep.Build(result)
		if cli.cfg.Storage.Enabled {
			if err := cli.saveReport(cmd, report); err != nil {
				return err
			}
		}

		output, _ := cmd.Flags().GetString("output")
		format, err := reporter.ParseFormat(cli.cfg.Report.Format)
		if err != nil {
			return err
		}
		return writeOutput(cmd, output, func(w io.Writer) error {
			return rep.Write(w, report, format)
		})
	},
}

// crawl runs a single-site crawl. With --progress every resolved frontier
// item is printed to stderr.
func (a *app) crawl(cmd *cobra.Command, rootURL string) (*models.CrawlResult, error) {
	var opts []crawler.Option
	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		errOut := cmd.ErrOrStderr()
		opts = append(opts, crawler.WithProgress(func(p models.Progress) {
			fmt.Fprintf(errOut, "[%d/%d] %-16s depth=%d %s\n", p.CrawledPages, p.Discovered, p.Outcome, p.Depth, p.URL)
		}))
	}

	result, err := a.newCrawler(opts...).Crawl(cmd.Context(), rootURL, a.cfg.CrawlConfig())
	if err != nil {
		return nil, fmt.Errorf("crawl failed: %w", err)
	}
	if result.Status == models.CrawlAborted {
		a.log.Warn("Crawl interrupted, reporting partial results",
			zap.String("root_url", result.RootURL),
			zap.Int("crawled_pages", result.CrawledPages),
		)
	}
	return result, nil
}

func (a *app) saveReport(cmd *cobra.Command, report *models.Report) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.Save(cmd.Context(), report)
	if err != nil {
		return err
	}
	report.ID = id
	a.log.Info("Snapshot saved", zap.String("id", id), zap.String("root_url", report.Crawl.RootURL))
	return nil
}

// encodeCrawl writes a raw crawl result. Only the structured formats make
// sense for it.
func encodeCrawl(w io.Writer, result *models.CrawlResult, format reporter.Format) error {
	switch format {
	case reporter.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case reporter.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: crawl output must be json or yaml, got %q", reporter.ErrUnsupportedFormat, format)
	}
}

func init() {
	for _, cmd := range []*cobra.Command{crawlCmd, auditCmd} {
		addCrawlFlags(cmd)
		cmd.Flags().String("output", "", "Output file (default stdout)")
		cmd.Flags().Bool("progress", false, "Print crawl progress to stderr")
	}
	crawlCmd.Flags().String("format", "json", "Output format (json, yaml)")
	auditCmd.Flags().String("format", "json", "Report format ("+reporter.FormatList()+")")
	addStorageFlags(auditCmd)
}
