package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging       LoggingConfig       `mapstructure:"logging"`
	API           APIConfig           `mapstructure:"api"`
	Chat          ChatConfig          `mapstructure:"chat"`
	Decentralized DecentralizedConfig `mapstructure:"decentralized"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// APIConfig holds backend endpoint configuration
type APIConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"-"`
	TimeoutStr string        `mapstructure:"timeout"` // For parsing string duration
}

// ChatConfig holds chat behaviour configuration
type ChatConfig struct {
	Models              []string      `mapstructure:"models"`
	WebSearch           bool          `mapstructure:"web_search"`
	ThrottleInterval    time.Duration `mapstructure:"-"`
	ThrottleIntervalStr string        `mapstructure:"throttle_interval"` // For parsing string duration
}

// DecentralizedConfig holds alternate-routing configuration
type DecentralizedConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	PreferredNode string `mapstructure:"preferred_node"`
}

var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.polychat") // Check project directory first
		viper.AddConfigPath(filepath.Join(xdgConfigHome, "polychat"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings.yaml")
	}

	viper.SetEnvPrefix("POLYCHAT")
	viper.AutomaticEnv()

	// Config file is optional; defaults cover a fresh install
	_ = viper.ReadInConfig()

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := processDurations(cfg); err != nil {
		return nil, fmt.Errorf("failed to process durations: %w", err)
	}

	return cfg, nil
}

// processDurations parses string duration fields into time.Duration values
func processDurations(c *Config) error {
	var err error

	c.API.Timeout, err = time.ParseDuration(c.API.TimeoutStr)
	if err != nil {
		return fmt.Errorf("invalid api.timeout %q: %w", c.API.TimeoutStr, err)
	}

	c.Chat.ThrottleInterval, err = time.ParseDuration(c.Chat.ThrottleIntervalStr)
	if err != nil {
		return fmt.Errorf("invalid chat.throttle_interval %q: %w", c.Chat.ThrottleIntervalStr, err)
	}

	return nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("api.url", "http://localhost:8080")
	viper.SetDefault("api.timeout", "90s")

	viper.SetDefault("chat.models", []string{})
	viper.SetDefault("chat.web_search", false)
	viper.SetDefault("chat.throttle_interval", "60ms")

	viper.SetDefault("decentralized.enabled", false)
	viper.SetDefault("decentralized.preferred_node", "")

	viper.SetDefault("logging.log_file", "./.polychat/system.log")
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", "info")
}
