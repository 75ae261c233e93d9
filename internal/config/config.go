package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Request   RequestConfig   `mapstructure:"request"`
	Platforms PlatformsConfig `mapstructure:"platforms"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"` // SQLite path
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// SchedulerConfig holds the daemon's trigger settings
type SchedulerConfig struct {
	ProcessCron   string `mapstructure:"process_cron"`   // how often due posts are processed
	UpcomingLimit int    `mapstructure:"upcoming_limit"` // bound for dry-run listings
}

// RequestConfig holds outbound call retry settings
type RequestConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	RetryAttempts  int `mapstructure:"retry_attempts"`
}

// Timeout returns the per-call timeout as a duration
func (r RequestConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// PlatformsConfig holds per-platform credential blocks. A platform is wired
// into the dispatcher only when its credentials are present.
type PlatformsConfig struct {
	Facebook FacebookConfig `mapstructure:"facebook"`
	Twitter  TwitterConfig  `mapstructure:"twitter"`
	LinkedIn LinkedInConfig `mapstructure:"linkedin"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// FacebookConfig holds Facebook Graph API settings
type FacebookConfig struct {
	AccessToken string `mapstructure:"access_token"`
	PageID      string `mapstructure:"page_id"`
	APIVersion  string `mapstructure:"api_version"`
}

// Enabled reports whether Facebook credentials are configured
func (c FacebookConfig) Enabled() bool { return c.AccessToken != "" && c.PageID != "" }

// TwitterConfig holds Twitter/X API settings
type TwitterConfig struct {
	BearerToken string `mapstructure:"bearer_token"`
}

// Enabled reports whether Twitter credentials are configured
func (c TwitterConfig) Enabled() bool { return c.BearerToken != "" }

// LinkedInConfig holds LinkedIn API settings
type LinkedInConfig struct {
	AccessToken string `mapstructure:"access_token"`
	PersonURN   string `mapstructure:"person_urn"`
}

// Enabled reports whether LinkedIn credentials are configured
func (c LinkedInConfig) Enabled() bool { return c.AccessToken != "" && c.PersonURN != "" }

// TelegramConfig holds Telegram Bot API settings
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	BaseURL  string `mapstructure:"base_url"`
}

// Enabled reports whether Telegram credentials are configured
func (c TelegramConfig) Enabled() bool { return c.BotToken != "" && c.ChatID != "" }

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".autoposter"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("AUTOPOST")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("database.dsn", "AUTOPOST_DATABASE_DSN")
	v.BindEnv("scheduler.process_cron", "AUTOPOST_SCHEDULER_PROCESS_CRON")
	v.BindEnv("request.timeout_seconds", "AUTOPOST_REQUEST_TIMEOUT_SECONDS")
	v.BindEnv("request.retry_attempts", "AUTOPOST_REQUEST_RETRY_ATTEMPTS")
	v.BindEnv("platforms.facebook.access_token", "AUTOPOST_FACEBOOK_ACCESS_TOKEN")
	v.BindEnv("platforms.facebook.page_id", "AUTOPOST_FACEBOOK_PAGE_ID")
	v.BindEnv("platforms.facebook.api_version", "AUTOPOST_FACEBOOK_API_VERSION")
	v.BindEnv("platforms.twitter.bearer_token", "AUTOPOST_TWITTER_BEARER_TOKEN")
	v.BindEnv("platforms.linkedin.access_token", "AUTOPOST_LINKEDIN_ACCESS_TOKEN")
	v.BindEnv("platforms.linkedin.person_urn", "AUTOPOST_LINKEDIN_PERSON_URN")
	v.BindEnv("platforms.telegram.bot_token", "AUTOPOST_TELEGRAM_BOT_TOKEN")
	v.BindEnv("platforms.telegram.chat_id", "AUTOPOST_TELEGRAM_CHAT_ID")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.dsn", "./data/autoposter.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("scheduler.process_cron", "* * * * *") // every minute
	v.SetDefault("scheduler.upcoming_limit", 10)

	v.SetDefault("request.timeout_seconds", 30)
	v.SetDefault("request.retry_attempts", 3)

	v.SetDefault("platforms.facebook.api_version", "v20.0")
	v.SetDefault("platforms.telegram.base_url", "https://api.telegram.org/bot")
}
