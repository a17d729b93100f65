package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amosWeiskopf/siteaudit/internal/config"
	"github.com/amosWeiskopf/siteaudit/internal/logger"
	"github.com/amosWeiskopf/siteaudit/internal/store"
	"github.com/amosWeiskopf/siteaudit/pkg/crawler"
	"github.com/amosWeiskopf/siteaudit/pkg/fetcher"
	"github.com/amosWeiskopf/siteaudit/pkg/reporter"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries what PersistentPreRunE prepares for every command.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

var cli = &app{log: zap.NewNop()}

var rootCmd = &cobra.Command{
	Use:   "siteaudit",
	Short: "SiteAudit - polite site crawler and SEO auditor",
	Long: `SiteAudit crawls a website politely (robots.txt, crawl delays, sitemaps),
audits every page against a fixed rule set and proposes prioritized fixes,
internal links and content improvements.`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	PersistentPreRunE: cli.setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = cli.log.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "siteaudit %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// setup loads the configuration, applies flag overrides and builds the
// logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// applyFlags overrides configuration values with flags the user set.
// Flags a command does not define are never reported as changed.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}

	set("verbose", func() error {
		if v, _ := flags.GetBool("verbose"); v {
			cfg.Logging.Level = "debug"
		}
		return nil
	})
	set("max-pages", func() (e error) { cfg.Crawler.MaxPages, e = flags.GetInt("max-pages"); return })
	set("max-depth", func() (e error) { cfg.Crawler.MaxDepth, e = flags.GetInt("max-depth"); return })
	set("delay-ms", func() (e error) { cfg.Crawler.DelayMs, e = flags.GetInt("delay-ms"); return })
	set("workers", func() (e error) { cfg.Crawler.ExtractWorkers, e = flags.GetInt("workers"); return })
	set("user-agent", func() (e error) { cfg.Crawler.UserAgent, e = flags.GetString("user-agent"); return })
	set("timeout", func() (e error) { cfg.Crawler.Timeout, e = flags.GetDuration("timeout"); return })
	set("concurrency", func() (e error) { cfg.Batch.Concurrency, e = flags.GetInt("concurrency"); return })
	set("format", func() (e error) { cfg.Report.Format, e = flags.GetString("format"); return })
	set("ignore-robots", func() error {
		ignore, e := flags.GetBool("ignore-robots")
		cfg.Crawler.RespectRobotsTxt = !ignore
		return e
	})
	set("no-sitemap", func() error {
		skip, e := flags.GetBool("no-sitemap")
		cfg.Crawler.UseSitemap = !skip
		return e
	})
	set("save", func() (e error) { cfg.Storage.Enabled, e = flags.GetBool("save"); return })
	set("storage-path", func() (e error) { cfg.Storage.Path, e = flags.GetString("storage-path"); return })
	return err
}

// addCrawlFlags registers the crawl budget and politeness flags.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-pages", 100, "Maximum number of pages to crawl")
	cmd.Flags().Int("max-depth", 3, "Maximum link depth from the root URL")
	cmd.Flags().Int("delay-ms", 1000, "Minimum delay between requests to the same origin")
	cmd.Flags().Int("workers", crawler.DefaultExtractWorkers, "Parallel extraction workers")
	cmd.Flags().String("user-agent", fetcher.DefaultUserAgent, "User-Agent header sent with every request")
	cmd.Flags().Duration("timeout", fetcher.DefaultTimeout, "Per-request timeout")
	cmd.Flags().Bool("ignore-robots", false, "Do not fetch or obey robots.txt")
	cmd.Flags().Bool("no-sitemap", false, "Do not seed the crawl from sitemaps")
}

func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("save", false, "Store the report as a snapshot")
	cmd.Flags().String("storage-path", "./data", "Snapshot database directory")
}

// newCrawler builds a crawler from the loaded configuration.
func (a *app) newCrawler(opts ...crawler.Option) *crawler.Crawler {
	base := []crawler.Option{
		crawler.WithFetcher(fetcher.New(a.cfg.FetcherOptions())),
		crawler.WithUserAgent(a.cfg.Crawler.UserAgent),
		crawler.WithLogger(a.log),
		crawler.WithExtractWorkers(a.cfg.Crawler.ExtractWorkers),
		crawler.WithSitemap(a.cfg.Crawler.UseSitemap),
	}
	return crawler.New(append(base, opts...)...)
}

func (a *app) newReporter() *reporter.Reporter {
	return reporter.New()
}

func (a *app) openStore() (*store.Store, error) {
	s, err := store.Open(a.cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return s, nil
}

// writeOutput runs render against the file at path, or stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, render func(w io.Writer) error) error {
	if path == "" {
		return render(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to %s\n", path)
	return nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file path")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
