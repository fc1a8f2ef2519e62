package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Bot         BotConfig         `json:"bot"`
	Logging     LoggingConfig     `json:"logging"`
	Attribution AttributionConfig `json:"attribution"`
	Routes      RoutesConfig      `json:"routes"`
	Database    DatabaseConfig    `json:"database"`
	Admin       AdminConfig       `json:"admin"`
}

type BotConfig struct {
	Token string `json:"token"`
	// SeedMembers requests the full member list on guild load to warm the role cache.
	SeedMembers bool `json:"seed_members"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type AttributionConfig struct {
	Attempts    int `json:"attempts"`
	Limit       int `json:"limit"`
	BaseDelayMS int `json:"base_delay_ms"`
	StepDelayMS int `json:"step_delay_ms"`
	StalenessMS int `json:"staleness_ms"`
	FeedTTLMS   int `json:"feed_ttl_ms"`
}

func (a AttributionConfig) BaseDelay() time.Duration {
	return time.Duration(a.BaseDelayMS) * time.Millisecond
}

func (a AttributionConfig) StepDelay() time.Duration {
	return time.Duration(a.StepDelayMS) * time.Millisecond
}

func (a AttributionConfig) Staleness() time.Duration {
	return time.Duration(a.StalenessMS) * time.Millisecond
}

func (a AttributionConfig) FeedTTL() time.Duration {
	return time.Duration(a.FeedTTLMS) * time.Millisecond
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type AdminConfig struct {
	ListenAddr string `json:"listen_addr"`
}

var GlobalConfig *Config

// Load reads a JSON config file on top of DefaultConfig and applies
// environment overrides. Variables from a local .env file are loaded first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployments are fine
	default:
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	GlobalConfig = cfg
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if addr := os.Getenv("ADMIN_ADDR"); addr != "" {
		cfg.Admin.ListenAddr = addr
	}
	if fallback := os.Getenv("FALLBACK_CHANNEL_ID"); fallback != "" {
		cfg.Routes.Fallback = fallback
	}
	if hook := os.Getenv("FALLBACK_WEBHOOK_URL"); hook != "" {
		cfg.Routes.FallbackWebhookURL = hook
	}
}

func (c *Config) Validate() error {
	if c.Attribution.Attempts < 1 {
		return fmt.Errorf("attribution.attempts must be at least 1, got %d", c.Attribution.Attempts)
	}
	if c.Attribution.Limit < 1 || c.Attribution.Limit > 100 {
		return fmt.Errorf("attribution.limit must be between 1 and 100, got %d", c.Attribution.Limit)
	}
	if c.Attribution.BaseDelayMS < 0 || c.Attribution.StepDelayMS < 0 {
		return errors.New("attribution delays must not be negative")
	}
	for name, dest := range c.Routes.Channels {
		if !knownCategory(name) {
			return fmt.Errorf("routes.channels: unknown category %q", name)
		}
		if err := validDestination(dest); err != nil {
			return fmt.Errorf("routes.channels.%s: %w", name, err)
		}
	}
	if err := validDestination(c.Routes.Fallback); err != nil {
		return fmt.Errorf("routes.fallback: %w", err)
	}
	if hook := c.Routes.FallbackWebhookURL; hook != "" && !strings.HasPrefix(hook, "https://") {
		return errors.New("routes.fallback_webhook_url must be an https URL")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			SeedMembers: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "modlogger.log",
		},
		Attribution: AttributionConfig{
			Attempts:    4,
			Limit:       10,
			BaseDelayMS: 1200,
			StepDelayMS: 300,
			StalenessMS: 10_000,
			FeedTTLMS:   15_000,
		},
		Routes: RoutesConfig{
			Channels: map[string]string{},
		},
		Database: DatabaseConfig{
			Path: "modlogger.db",
		},
		Admin: AdminConfig{
			ListenAddr: ":9091",
		},
	}
}

func Get() *Config {
	if GlobalConfig == nil {
		return DefaultConfig()
	}
	return GlobalConfig
}
