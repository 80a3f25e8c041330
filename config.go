package progscrape

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the YAML service configuration.
type Config struct {
	Addr               string         `yaml:"addr"`
	Database           string         `yaml:"database"`
	Schedule           string         `yaml:"schedule"`
	Timezone           string         `yaml:"timezone"`
	HTTPTimeoutSeconds int            `yaml:"http_timeout_seconds"`
	Scrapers           ScrapeSettings `yaml:"scrapers"`
	Tagger             TaggerConfig   `yaml:"tagger"`
}

type ScrapeSettings struct {
	HackerNews bool     `yaml:"hackernews"`
	Lobsters   bool     `yaml:"lobsters"`
	Subreddits []string `yaml:"subreddits"`
}

func DefaultConfig() Config {
	return Config{
		Addr:               ":8000",
		Database:           "progscrape.db",
		Schedule:           "@every 30m",
		Timezone:           "UTC",
		HTTPTimeoutSeconds: 30,
		Scrapers: ScrapeSettings{
			HackerNews: true,
			Lobsters:   true,
			Subreddits: []string{"programming", "rust", "golang"},
		},
	}
}

// LoadConfig reads path over the defaults, so omitted keys keep their
// default values and explicit false disables a scraper.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.Database == "" {
		c.Database = def.Database
	}
	if c.Schedule == "" {
		c.Schedule = def.Schedule
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.HTTPTimeoutSeconds <= 0 {
		c.HTTPTimeoutSeconds = def.HTTPTimeoutSeconds
	}
}

func (c Config) validate() error {
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("config schedule %q: %w", c.Schedule, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config timezone %q: %w", c.Timezone, err)
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Fetchers builds the scrapers the schedule runs.
func (c Config) Fetchers() []Fetcher {
	var fetchers []Fetcher
	if c.Scrapers.HackerNews {
		fetchers = append(fetchers, NewHackerNews())
	}
	if len(c.Scrapers.Subreddits) > 0 {
		fetchers = append(fetchers, NewReddit(c.Scrapers.Subreddits...))
	}
	if c.Scrapers.Lobsters {
		fetchers = append(fetchers, NewLobsters(""))
	}
	return fetchers
}

// HTTPTimeout is the per-request budget for scraping and submissions.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}
