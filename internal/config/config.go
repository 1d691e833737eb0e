package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/elonfeng/redinsight/pkg/source"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is given and it exists.
const DefaultPath = "./config.yaml"

// Per-request limits accepted by the API and CLI.
const (
	MinRequestLimit = 1
	MaxRequestLimit = 20
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Sources  SourcesConfig  `yaml:"sources"`
	Search   SearchConfig   `yaml:"search"`
	Engine   EngineConfig   `yaml:"engine"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	LLM      LLMConfig      `yaml:"llm"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	CORSOrigins     []string `yaml:"cors_origins"`
	ReadTimeout     string   `yaml:"read_timeout"`
	WriteTimeout    string   `yaml:"write_timeout"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s ServerConfig) ParseReadTimeout() time.Duration {
	return parseDuration(s.ReadTimeout, 30*time.Second)
}

func (s ServerConfig) ParseWriteTimeout() time.Duration {
	return parseDuration(s.WriteTimeout, 120*time.Second)
}

func (s ServerConfig) ParseShutdownTimeout() time.Duration {
	return parseDuration(s.ShutdownTimeout, 10*time.Second)
}

// LogConfig configures the root logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// SourcesConfig holds configuration for every searcher. Enabled searchers
// are chained in the order xhs, reddit, hackernews, rss, demo.
type SourcesConfig struct {
	XHS        XHSConfig        `yaml:"xhs"`
	Reddit     RedditConfig     `yaml:"reddit"`
	HackerNews HackerNewsConfig `yaml:"hackernews"`
	RSS        RSSConfig        `yaml:"rss"`
	Demo       DemoConfig       `yaml:"demo"`
	Exclude    []string         `yaml:"exclude_keywords"`
}

// XHSConfig for the xiaohongshu browser searcher.
type XHSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Cookie   string `yaml:"cookie"`
	Headless bool   `yaml:"headless"`
	Timeout  string `yaml:"timeout"`
	Settle   string `yaml:"settle"`
}

// Options converts the config into searcher options.
func (x XHSConfig) Options() source.XHSOptions {
	return source.XHSOptions{
		Headless: x.Headless,
		Timeout:  parseDuration(x.Timeout, 60*time.Second),
		Settle:   parseDuration(x.Settle, 3*time.Second),
	}
}

// RedditConfig for the Reddit searcher.
type RedditConfig struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Subreddits   []string `yaml:"subreddits"`
}

// HackerNewsConfig for the Hacker News searcher.
type HackerNewsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RSSConfig for the RSS feed searcher.
type RSSConfig struct {
	Enabled bool             `yaml:"enabled"`
	MaxAge  string           `yaml:"max_age"`
	Feeds   []source.RSSFeed `yaml:"feeds"`
}

// ParseMaxAge returns the feed entry age limit. Zero disables it.
func (r RSSConfig) ParseMaxAge() time.Duration {
	return parseDuration(r.MaxAge, 0)
}

// DemoConfig for the demo fallback searcher.
type DemoConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SearchConfig configures retrieval.
type SearchConfig struct {
	MaxPosts int    `yaml:"max_posts"`
	CacheTTL string `yaml:"cache_ttl"`
}

// ParseCacheTTL returns how long searched posts are served from the store.
// Zero disables the cache.
func (s SearchConfig) ParseCacheTTL() time.Duration {
	return parseDuration(s.CacheTTL, 0)
}

// EngineConfig configures the scoring engine.
type EngineConfig struct {
	HotWordsTopN int `yaml:"hot_words_top_n"`
	AuthorsTopN  int `yaml:"authors_top_n"`
	TagsTopN     int `yaml:"tags_top_n"`
}

// ScheduleConfig configures the ranking refresh job.
type ScheduleConfig struct {
	RankingCron string   `yaml:"ranking_cron"`
	Categories  []string `yaml:"categories"`
	MaxItems    int      `yaml:"max_items"`
	JobTimeout  string   `yaml:"job_timeout"`
}

// ParseJobTimeout bounds one refresh run.
func (s ScheduleConfig) ParseJobTimeout() time.Duration {
	return parseDuration(s.JobTimeout, 10*time.Minute)
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
	NATS    NATSConfig    `yaml:"nats"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// NATSConfig for publishing alerts on a NATS subject.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// LLMConfig configures the optional narrator.
type LLMConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // "openai" or "anthropic"
	Model    string `yaml:"model"`    // empty picks the provider default
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // custom endpoint (optional)
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./redinsight.db"},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			CORSOrigins:     []string{"*"},
			ReadTimeout:     "30s",
			WriteTimeout:    "120s",
			ShutdownTimeout: "10s",
		},
		Log: LogConfig{Level: "info"},
		Sources: SourcesConfig{
			XHS:        XHSConfig{Enabled: true, Headless: true, Timeout: "60s", Settle: "3s"},
			Reddit:     RedditConfig{Enabled: false},
			HackerNews: HackerNewsConfig{Enabled: false},
			RSS:        RSSConfig{Enabled: false, MaxAge: "168h"},
			Demo:       DemoConfig{Enabled: true},
		},
		Search: SearchConfig{MaxPosts: 5, CacheTTL: "10m"},
		Engine: EngineConfig{HotWordsTopN: 20, AuthorsTopN: 10, TagsTopN: 10},
		Schedule: ScheduleConfig{
			RankingCron: "@every 30m",
			Categories:  []string{"hot", "rising", "weekly"},
			MaxItems:    10,
			JobTimeout:  "10m",
		},
		Alerts: AlertsConfig{
			NATS: NATSConfig{Subject: "redinsight.alerts"},
		},
		LLM: LLMConfig{Provider: "openai"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
// With an empty path DefaultPath is used when it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the commands cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Alerts.NATS.Enabled && c.Alerts.NATS.Subject == "" {
		errs = append(errs, errors.New("alerts.nats.subject is required"))
	}
	if c.LLM.Enabled && c.LLM.Provider != "openai" && c.LLM.Provider != "anthropic" {
		errs = append(errs, fmt.Errorf("llm.provider %q must be openai or anthropic", c.LLM.Provider))
	}
	return errors.Join(errs...)
}

// ClampLimit bounds a per-request limit to [MinRequestLimit, MaxRequestLimit],
// using def for zero.
func ClampLimit(n, def int) int {
	if n == 0 {
		n = def
	}
	return max(MinRequestLimit, min(n, MaxRequestLimit))
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REDINSIGHT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("REDINSIGHT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REDINSIGHT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("XHS_COOKIE"); v != "" {
		cfg.Sources.XHS.Cookie = v
		cfg.Sources.XHS.Enabled = true
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Sources.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Sources.Reddit.ClientSecret = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.Alerts.NATS.URL = v
		cfg.Alerts.NATS.Enabled = true
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
		cfg.LLM.Enabled = true
		cfg.LLM.Provider = "openai"
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
		cfg.LLM.Enabled = true
		cfg.LLM.Provider = "anthropic"
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
