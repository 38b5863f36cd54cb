// Package config provides configuration management for the raceday
// settlement service.
package config

import (
	"time"
)

// Config represents the complete service configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Store      StoreConfig      `mapstructure:"store" validate:"required"`
	Provider   ProviderConfig   `mapstructure:"provider" validate:"required"`
	Settlement SettlementConfig `mapstructure:"settlement" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// StoreConfig represents the row-oriented data API connection.
type StoreConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	ServiceKey     string `mapstructure:"service_key" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries     int    `mapstructure:"max_retries" validate:"gte=0"`
}

// ProviderConfig represents the external result provider endpoint.
type ProviderConfig struct {
	URL            string `mapstructure:"url" validate:"required,url"`
	APIKey         string `mapstructure:"api_key" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// SettlementConfig tunes the pipeline itself.
type SettlementConfig struct {
	SettleDelayMinutes int    `mapstructure:"settle_delay_minutes" validate:"required,gt=0"`
	BatchLimit         int    `mapstructure:"batch_limit" validate:"required,gt=0,lte=200"`
	RateMs             int    `mapstructure:"rate_ms" validate:"required,gte=100"`
	DeadlineSeconds    int    `mapstructure:"deadline_seconds" validate:"gte=0"`
	Timezone           string `mapstructure:"timezone" validate:"required"`
}

// ServerConfig represents the trigger HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// MetricsConfig represents metrics exposure.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsProduction checks if the service is running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// StoreTimeout returns the data API timeout as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Store.TimeoutSeconds) * time.Second
}

// ProviderTimeout returns the per-call provider timeout as a duration.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// SettleDelay returns the post-off buffer before a result is fetchable.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Settlement.SettleDelayMinutes) * time.Minute
}

// CallInterval returns the default delay between provider calls.
func (c *Config) CallInterval() time.Duration {
	return time.Duration(c.Settlement.RateMs) * time.Millisecond
}

// RunDeadline returns the overall invocation budget; zero means unbounded.
func (c *Config) RunDeadline() time.Duration {
	return time.Duration(c.Settlement.DeadlineSeconds) * time.Second
}
