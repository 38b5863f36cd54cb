package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment
// variables. It expands environment variable placeholders in the YAML file
// (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix("RACEDAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields, tolerating a missing config file so the service can run from
// environment variables alone.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("RACEDAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "raceday-settler")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("store.timeout_seconds", 10)
	v.SetDefault("store.max_retries", 3)
	v.SetDefault("provider.timeout_seconds", 15)
	v.SetDefault("settlement.settle_delay_minutes", 20)
	v.SetDefault("settlement.batch_limit", 50)
	v.SetDefault("settlement.rate_ms", 600)
	v.SetDefault("settlement.deadline_seconds", 0)
	v.SetDefault("settlement.timezone", "Europe/London")
	v.SetDefault("server.port", 8090)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9100)
	v.SetDefault("metrics.path", "/metrics")

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}
