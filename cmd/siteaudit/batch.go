package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/crawler"
	"github.com/amosWeiskopf/siteaudit/pkg/reporter"
)

var batchCmd = &cobra.Command{
	Use:   "batch [URL...]",
	Short: "Audit several websites in parallel",
	Long: `Audit several websites in parallel, one independent crawler per site.
Sites come from the arguments and from --file (one URL per line, # comments).
A summary table is printed; --output-dir writes one full report per site.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		roots := append([]string{}, args...)
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			listed, err := readURLList(file)
			if err != nil {
				return err
			}
			roots = append(roots, listed...)
		}
		if len(roots) == 0 {
			return errors.New("no sites given: pass URLs or --file")
		}

		format, err := reporter.ParseFormat(cli.cfg.Report.Format)
		if err != nil {
			return err
		}

		results, err := crawler.CrawlSites(cmd.Context(), cli.newCrawler(), roots, cli.cfg.CrawlConfig(), cli.cfg.Batch.Concurrency)
		if err != nil {
			return fmt.Errorf("batch crawl failed: %w", err)
		}

		rep := cli.newReporter()
		reports := make([]*models.Report, len(results))
		for i, result := range results {
			reports[i] = rep.Build(result)
			if cli.cfg.Storage.Enabled {
				if err := cli.saveReport(cmd, reports[i]); err != nil {
					return err
				}
			}
		}

		if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
			if err := writeReports(cmd, rep, dir, reports, format); err != nil {
				return err
			}
		}
		printBatchSummary(cmd.OutOrStdout(), reports)
		return nil
	},
}

func readURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}

func writeReports(cmd *cobra.Command, rep *reporter.Reporter, dir string, reports []*models.Report, format reporter.Format) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for i, report := range reports {
		path := filepath.Join(dir, reportFileName(i, report.Crawl.RootURL, format))
		if err := writeOutput(cmd, path, func(w io.Writer) error {
			return rep.Write(w, report, format)
		}); err != nil {
			return err
		}
	}
	return nil
}

// reportFileName names a batch report after its host, prefixed with the
// input position so two roots on the same host never collide.
func reportFileName(index int, rootURL string, format reporter.Format) string {
	host := "site"
	if u, err := url.Parse(rootURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	ext := map[reporter.Format]string{
		reporter.FormatJSON:     "json",
		reporter.FormatYAML:     "yaml",
		reporter.FormatHTML:     "html",
		reporter.FormatMarkdown: "md",
	}[format]
	return fmt.Sprintf("%02d-%s.%s", index+1, host, ext)
}

// printBatchSummary renders one row per site.
func printBatchSummary(w io.Writer, reports []*models.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Site", "Status", "Pages", "Errors", "Issues", "Score", "Grade", "ID"})
	for _, r := range reports {
		id := r.ID
		if id == "" {
			id = "-"
		}
		t.AppendRow(table.Row{
			r.Crawl.RootURL,
			r.Crawl.Status,
			r.Crawl.CrawledPages,
			len(r.Crawl.Errors),
			r.Audit.Summary.TotalIssues,
			fmt.Sprintf("%.1f", r.Audit.Score),
			r.Grade,
			id,
		})
	}
	t.Render()
}

func init() {
	addCrawlFlags(batchCmd)
	addStorageFlags(batchCmd)
	batchCmd.Flags().String("file", "", "File with one root URL per line")
	batchCmd.Flags().Int("concurrency", crawler.DefaultBatchConcurrency, "Sites crawled in parallel")
	batchCmd.Flags().String("format", "json", "Report format for --output-dir ("+reporter.FormatList()+")")
	batchCmd.Flags().String("output-dir", "", "Directory for per-site reports")
}
