package config

import (
	"time"

	"github.com/spf13/viper"
)

// Settings is the typed view of the application configuration.
type Settings struct {
	DatabasePath string
	Provider     string
	APIKey       string
	Model        string
	Currency     string
	City         string
	MaxRetries   int
	RetryDelay   time.Duration
	RateLimit    int
	Temperature  float64
	MaxTokens    int
}

// Load reads settings from viper with application defaults applied.
func Load() Settings {
	s := Settings{
		DatabasePath: viper.GetString("database.path"),
		Provider:     viper.GetString("llm.provider"),
		APIKey:       viper.GetString("llm.api_key"),
		Model:        viper.GetString("llm.model"),
		Currency:     viper.GetString("search.currency"),
		City:         viper.GetString("search.city"),
		MaxRetries:   viper.GetInt("llm.max_retries"),
		RetryDelay:   viper.GetDuration("llm.retry_delay"),
		RateLimit:    viper.GetInt("llm.rate_limit"),
		Temperature:  viper.GetFloat64("llm.temperature"),
		MaxTokens:    viper.GetInt("llm.max_tokens"),
	}

	if s.DatabasePath == "" {
		s.DatabasePath = "$HOME/.local/share/priceowl/priceowl.db"
	}
	if s.Provider == "" {
		s.Provider = "openai"
	}
	if s.Currency == "" {
		s.Currency = "COP"
	}
	if s.City == "" {
		s.City = "Bogotá"
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = 3
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = 1200 * time.Millisecond
	}
	if s.RateLimit <= 0 {
		s.RateLimit = 10
	}

	return s
}
