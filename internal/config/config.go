package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"NewsDigest/internal/domain"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "NEWSDIGEST_CONFIG"
	aiAPIKeyEnv     = "AI_API_KEY"
	aiEndpointEnv   = "AI_ENDPOINT"
	workerURLEnv    = "WORKER_URL"
	pushTokenEnv    = "PUSH_TOKEN"
	twitterBaseEnv  = "TWITTER_API_BASE"
	cachePathEnv    = "NEWSDIGEST_CACHE"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	AI        AIConfig        `yaml:"ai"`
	Push      PushConfig      `yaml:"push"`
	Report    ReportConfig    `yaml:"report"`
	Twitter   TwitterConfig   `yaml:"twitter"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig describes the seen-item cache location and retention.
type StorageConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retentionDays"`
}

// SchedulerConfig defines when the pipeline should run in cron mode.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// AIConfig defines how to contact the scoring service (an
// OpenAI-compatible chat completions API).
type AIConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	BatchSize   int     `yaml:"batchSize"`
	Concurrency int     `yaml:"concurrency"`
	MaxAttempts int     `yaml:"maxAttempts"`
	TimeoutSec  int     `yaml:"timeoutSec"`
	Temperature float64 `yaml:"temperature"`
}

// PushConfig wires the report delivery endpoint.
type PushConfig struct {
	WorkerURL   string `yaml:"workerUrl"`
	Token       string `yaml:"token"`
	MaxAttempts int    `yaml:"maxAttempts"`
	TimeoutSec  int    `yaml:"timeoutSec"`
}

// ReportConfig shapes selection and composition of the daily digest.
type ReportConfig struct {
	Name      string  `yaml:"name"`
	Threshold float64 `yaml:"threshold"`
	MaxItems  int     `yaml:"maxItems"`
}

// TwitterConfig groups settings shared by all twitter sources.
type TwitterConfig struct {
	APIBase        string  `yaml:"apiBase"`
	RequestsPerMin float64 `yaml:"requestsPerMin"`
}

// SourceConfig describes a single configured source of either kind.
// Address is a feed URL for rss sources and an account handle for
// twitter sources.
type SourceConfig struct {
	Kind     domain.ItemKind `yaml:"kind"`
	Label    string          `yaml:"label"`
	Address  string          `yaml:"address"`
	Limit    int             `yaml:"limit"`
	Keywords []string        `yaml:"keywords"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// Configuration problems abort before any side effects.
//
// The file is decoded directly over the defaults, so only keys present
// in the document override them; an explicit zero (threshold: 0,
// temperature: 0) takes effect like any other value.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks invariants the pipeline depends on.
func (c Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: no sources configured")
	}
	for i, src := range c.Sources {
		if src.Kind != domain.KindRSS && src.Kind != domain.KindTwitter {
			return fmt.Errorf("config: source %d: unknown kind %q", i, src.Kind)
		}
		if src.Address == "" {
			return fmt.Errorf("config: source %d (%s): address is required", i, src.Label)
		}
		if src.Label == "" {
			return fmt.Errorf("config: source %d: label is required", i)
		}
	}
	if c.Report.Threshold < 0 || c.Report.Threshold > 1 {
		return fmt.Errorf("config: report threshold %.2f outside [0,1]", c.Report.Threshold)
	}
	// Required credentials: running without them cannot score or
	// publish anything, so abort before any fetch happens.
	if c.AI.APIKey == "" {
		return fmt.Errorf("config: ai api key is required (set %s)", aiAPIKeyEnv)
	}
	if c.Push.WorkerURL == "" {
		return fmt.Errorf("config: push worker url is required (set %s)", workerURLEnv)
	}
	if c.Push.Token == "" {
		return fmt.Errorf("config: push token is required (set %s)", pushTokenEnv)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(aiAPIKeyEnv); v != "" {
		c.AI.APIKey = v
	}

	if v := os.Getenv(aiEndpointEnv); v != "" {
		c.AI.Endpoint = v
	}

	if v := os.Getenv(workerURLEnv); v != "" {
		c.Push.WorkerURL = v
	}

	if v := os.Getenv(pushTokenEnv); v != "" {
		c.Push.Token = v
	}

	if v := os.Getenv(twitterBaseEnv); v != "" {
		c.Twitter.APIBase = v
	}

	if v := os.Getenv(cachePathEnv); v != "" {
		c.Storage.Path = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Storage:   StorageConfig{Path: "cache/history.db", RetentionDays: 30},
		Scheduler: SchedulerConfig{CronExpression: "0 8 * * *", Timezone: defaultTimezone, location: tz},
		AI: AIConfig{
			Endpoint:    "https://api.deepseek.com/v1/chat/completions",
			Model:       "deepseek-chat",
			BatchSize:   5,
			Concurrency: 2,
			MaxAttempts: 3,
			TimeoutSec:  30,
			Temperature: 0.3,
		},
		Push:    PushConfig{MaxAttempts: 3, TimeoutSec: 30},
		Report:  ReportConfig{Name: "Financial News Daily", Threshold: 0.6, MaxItems: 5},
		Twitter: TwitterConfig{RequestsPerMin: 30},
		Sources: []SourceConfig{
			{
				Kind:    domain.KindRSS,
				Label:   "Reuters Business",
				Address: "https://feeds.reuters.com/reuters/businessNews",
				Limit:   20,
			},
		},
	}
}
