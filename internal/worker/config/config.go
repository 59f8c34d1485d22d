package config

import (
	"time"

	"liirat-news/internal/entity"
	"liirat-news/pkg/config"
)

// Worker holds scheduler settings.
type Worker struct {
	PollingInterval time.Duration `mapstructure:"polling_interval"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TwelveData holds the configuration for the Twelve Data quote API.
type TwelveData struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// EODHD holds the calendar provider settings used by calendar_sync.
type EODHD struct {
	BaseURL             string `mapstructure:"base_url"`
	Token               string `mapstructure:"token"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Telegram holds configuration for job failure notifications.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type Prices struct {
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

// Config holds the full configuration for the worker service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	Worker     Worker          `mapstructure:"worker"`
	Jobs       []entity.Job    `mapstructure:"jobs"`
	TwelveData TwelveData      `mapstructure:"twelve_data"`
	EODHD      EODHD           `mapstructure:"eodhd"`
	Telegram   Telegram        `mapstructure:"telegram"`
	Prices     Prices          `mapstructure:"prices"`
}

var defaults = map[string]interface{}{
	"logger.level":                       "info",
	"logger.encoding":                    "json",
	"worker.polling_interval":            "5s",
	"worker.default_timeout":             "2m",
	"worker.shutdown_timeout":            "30s",
	"twelve_data.base_url":               "https://api.twelvedata.com",
	"twelve_data.api_key":                "",
	"twelve_data.max_request_per_minute": 8,
	"eodhd.base_url":                     "https://eodhd.com/api",
	"eodhd.token":                        "",
	"eodhd.max_request_per_minute":       60,
	"prices.snapshot_ttl":                "24h",
}

// Load loads the worker configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults); err != nil {
		return nil, err
	}
	for i := range cfg.Jobs {
		if cfg.Jobs[i].Timeout <= 0 {
			cfg.Jobs[i].Timeout = cfg.Worker.DefaultTimeout
		}
	}
	return &cfg, nil
}
