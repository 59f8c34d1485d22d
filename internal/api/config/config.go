package config

import (
	"time"

	"liirat-news/pkg/config"
)

// EODHD holds the economic calendar provider settings.
type EODHD struct {
	BaseURL              string `mapstructure:"base_url"`
	Token                string `mapstructure:"token"`
	MaxRequestPerMinute  int    `mapstructure:"max_request_per_minute"`
	DefaultLookbackDays  int    `mapstructure:"default_lookback_days"`
	DefaultLookaheadDays int    `mapstructure:"default_lookahead_days"`
}

// OpenAI holds the settings for translation and chat.
type OpenAI struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// Gemini holds the settings for event analysis.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

type Translation struct {
	CacheFile string `mapstructure:"cache_file"`
}

// Telegram holds the operator chat used for contact messages.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type Calendar struct {
	PageSize       int           `mapstructure:"page_size"`
	AlertsPageSize int           `mapstructure:"alerts_page_size"`
	UserDataTTL    time.Duration `mapstructure:"user_data_ttl"`
}

type Prices struct {
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// Session selects where session records live ("redis" or "memory").
type Session struct {
	Storage string        `mapstructure:"storage"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type Notifications struct {
	HistorySize int `mapstructure:"history_size"`
}

// Config holds the full configuration for the API service.
type Config struct {
	App           config.App      `mapstructure:"app"`
	Logger        config.Logger   `mapstructure:"logger"`
	Database      config.Database `mapstructure:"database"`
	Redis         config.Redis    `mapstructure:"redis"`
	API           config.API      `mapstructure:"api"`
	EODHD         EODHD           `mapstructure:"eodhd"`
	OpenAI        OpenAI          `mapstructure:"openai"`
	Gemini        Gemini          `mapstructure:"gemini"`
	Translation   Translation     `mapstructure:"translation"`
	Telegram      Telegram        `mapstructure:"telegram"`
	Calendar      Calendar        `mapstructure:"calendar"`
	Prices        Prices          `mapstructure:"prices"`
	Session       Session         `mapstructure:"session"`
	Notifications Notifications   `mapstructure:"notifications"`
}

var defaults = map[string]interface{}{
	"api.port":                      8080,
	"logger.level":                  "info",
	"logger.encoding":               "json",
	"eodhd.base_url":                "https://eodhd.com/api",
	"eodhd.token":                   "",
	"eodhd.default_lookback_days":   7,
	"eodhd.default_lookahead_days":  30,
	"openai.api_key":                "",
	"openai.model":                  "gpt-4o-mini",
	"openai.max_tokens":             120,
	"gemini.api_key":                "",
	"gemini.model":                  "gemini-2.0-flash",
	"gemini.max_request_per_minute": 10,
	"translation.cache_file":        ".cache/titleTranslations.json",
	"calendar.page_size":            6,
	"calendar.alerts_page_size":     5,
	"calendar.user_data_ttl":        "30s",
	"prices.stale_after":            "3m",
	"session.storage":               "redis",
	"session.ttl":                   "24h",
	"notifications.history_size":    10,
}

// Load loads the API configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults); err != nil {
		return nil, err
	}
	return &cfg, nil
}
