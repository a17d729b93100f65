package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/fetcher"
	"github.com/amosWeiskopf/siteaudit/pkg/reporter"
)

// EnvPrefix prefixes every environment override, e.g.
// SITEAUDIT_CRAWLER_MAX_PAGES.
const EnvPrefix = "SITEAUDIT"

// Config holds all application configuration
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Report  ReportConfig  `mapstructure:"report"`
}

// CrawlerConfig holds crawler-specific configuration
type CrawlerConfig struct {
	MaxPages         int           `mapstructure:"max_pages"`
	MaxDepth         int           `mapstructure:"max_depth"`
	DelayMs          int           `mapstructure:"delay_ms"`
	RespectRobotsTxt bool          `mapstructure:"respect_robots_txt"`
	UserAgent        string        `mapstructure:"user_agent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes"`
	ExtractWorkers   int           `mapstructure:"extract_workers"`
	UseSitemap       bool          `mapstructure:"use_sitemap"`
}

// BatchConfig controls multi-site crawls.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string   `mapstructure:"level"`
	Development bool     `mapstructure:"development"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// ReportConfig selects the default report format.
type ReportConfig struct {
	Format string `mapstructure:"format"`
}

// Load reads configuration from a YAML file, then applies environment
// overrides. With an empty configPath it looks for config.yaml in ".",
// "./config" and "$HOME/.siteaudit"; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.siteaudit")
	}

	setDefaults(v)
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.max_pages", 100)
	v.SetDefault("crawler.max_depth", 3)
	v.SetDefault("crawler.delay_ms", 1000)
	v.SetDefault("crawler.respect_robots_txt", true)
	v.SetDefault("crawler.user_agent", fetcher.DefaultUserAgent)
	v.SetDefault("crawler.timeout", fetcher.DefaultTimeout)
	v.SetDefault("crawler.max_body_bytes", fetcher.DefaultMaxBodyBytes)
	v.SetDefault("crawler.extract_workers", 4)
	v.SetDefault("crawler.use_sitemap", true)

	v.SetDefault("batch.concurrency", 4)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.path", "./data")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.output_paths", []string{"stderr"})

	v.SetDefault("report.format", string(reporter.FormatJSON))
}

// bindEnvVars maps crawler.max_pages to SITEAUDIT_CRAWLER_MAX_PAGES and so on.
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch {
	case c.Crawler.MaxPages <= 0:
		return fmt.Errorf("crawler.max_pages must be positive, got %d", c.Crawler.MaxPages)
	case c.Crawler.MaxDepth < 0:
		return fmt.Errorf("crawler.max_depth must not be negative, got %d", c.Crawler.MaxDepth)
	case c.Crawler.DelayMs < 0:
		return fmt.Errorf("crawler.delay_ms must not be negative, got %d", c.Crawler.DelayMs)
	case c.Crawler.Timeout <= 0:
		return fmt.Errorf("crawler.timeout must be positive, got %s", c.Crawler.Timeout)
	case c.Crawler.MaxBodyBytes <= 0:
		return fmt.Errorf("crawler.max_body_bytes must be positive, got %d", c.Crawler.MaxBodyBytes)
	case c.Crawler.ExtractWorkers <= 0:
		return fmt.Errorf("crawler.extract_workers must be positive, got %d", c.Crawler.ExtractWorkers)
	case c.Batch.Concurrency <= 0:
		return fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	case c.Storage.Enabled && c.Storage.Path == "":
		return errors.New("storage.path is required when storage is enabled")
	}
	if _, err := reporter.ParseFormat(c.Report.Format); err != nil {
		return fmt.Errorf("report.format: %w", err)
	}
	return nil
}

// CrawlConfig returns the per-crawl budget and politeness settings.
func (c *Config) CrawlConfig() models.CrawlConfig {
	return models.CrawlConfig{
		MaxPages:         c.Crawler.MaxPages,
		MaxDepth:         c.Crawler.MaxDepth,
		DelayMs:          c.Crawler.DelayMs,
		RespectRobotsTxt: c.Crawler.RespectRobotsTxt,
	}
}

// FetcherOptions returns the HTTP fetcher settings.
func (c *Config) FetcherOptions() fetcher.Options {
	return fetcher.Options{
		UserAgent:    c.Crawler.UserAgent,
		Timeout:      c.Crawler.Timeout,
		MaxBodyBytes: c.Crawler.MaxBodyBytes,
	}
}
