package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	BotToken      string `envconfig:"BOT_TOKEN" required:"true"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET" required:"true"`
	PublicURL     string `envconfig:"PUBLIC_URL"`

	JSONBinID      string        `envconfig:"JSONBIN_ID" required:"true"`
	JSONBinKey     string        `envconfig:"JSONBIN_KEY" required:"true"`
	JSONBinURL     string        `envconfig:"JSONBIN_URL" default:"https://api.jsonbin.io/v3"`
	JSONBinTimeout time.Duration `envconfig:"JSONBIN_TIMEOUT" default:"10s"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	Timezone     string `envconfig:"TIMEZONE" default:"Asia/Tehran"`
	ResetWeekday string `envconfig:"RESET_WEEKDAY" default:"Friday"`
	SlotsPerDay  int    `envconfig:"SLOTS_PER_DAY" default:"3"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.BotToken == "" {
		return nil, errors.New("bot token must be provided")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("webhook secret must be provided")
	}
	if cfg.SlotsPerDay <= 0 {
		return nil, errors.New("slots per day must be positive")
	}
	if _, err := cfg.AnchorWeekday(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Location resolves the configured civil timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// AnchorWeekday parses the configured reset weekday name.
func (c *Config) AnchorWeekday() (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(c.ResetWeekday, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown reset weekday %q", c.ResetWeekday)
}
