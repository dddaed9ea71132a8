package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromYAML(t *testing.T, yaml string) *Config {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	c, err := Load(cfgPath)
	require.NoError(t, err)
	return c
}

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	// Missing config file falls back to defaults
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", c.API.URL)
	assert.Equal(t, 90*time.Second, c.API.Timeout)
	assert.Equal(t, 60*time.Millisecond, c.Chat.ThrottleInterval)
	assert.Empty(t, c.Chat.Models)
	assert.False(t, c.Decentralized.Enabled)
	assert.Equal(t, "info", c.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	c := loadFromYAML(t, `
api:
  url: https://chat.example.com
  timeout: 2m
chat:
  models:
    - gpt-x
    - claude-y
  web_search: true
  throttle_interval: 100ms
decentralized:
  enabled: true
  preferred_node: "0xnode"
logging:
  level: debug
`)

	assert.Equal(t, "https://chat.example.com", c.API.URL)
	assert.Equal(t, 2*time.Minute, c.API.Timeout)
	assert.Equal(t, []string{"gpt-x", "claude-y"}, c.Chat.Models)
	assert.True(t, c.Chat.WebSearch)
	assert.Equal(t, 100*time.Millisecond, c.Chat.ThrottleInterval)
	assert.True(t, c.Decentralized.Enabled)
	assert.Equal(t, "0xnode", c.Decentralized.PreferredNode)
	assert.Equal(t, "debug", c.Logging.Level)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("api:\n  timeout: soon\n"), 0644))

	_, err := Load(cfgPath)
	assert.ErrorContains(t, err, "invalid api.timeout")
}

func TestGetPanicsUninitialized(t *testing.T) {
	prev := cfg
	cfg = nil
	defer func() { cfg = prev }()

	assert.Panics(t, func() { Get() })
}

func TestGetReturnsLoadedConfig(t *testing.T) {
	c := loadFromYAML(t, "chat:\n  throttle_interval: 30ms\n")

	assert.Same(t, c, Get())
	assert.Equal(t, 30*time.Millisecond, Get().Chat.ThrottleInterval)
}
