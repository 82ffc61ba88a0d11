package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MARKER_PACER_DEBUG=true.
const EnvPrefix = "MARKER_PACER"

// Authoritative channel selections.
const (
	ChannelAuto      = "auto"
	ChannelReflex    = "reflex"
	ChannelVulkan    = "vulkan"
	ChannelETW       = "etw"
	ChannelSynthetic = "synthetic"
)

// Config holds runtime configuration for the marker engine and the
// diagnostics harness. Fields are loaded from a JSON file and may be
// overridden by environment variables.
type Config struct {
	Debug    bool   `json:"debug" mapstructure:"debug"`
	LogLevel string `json:"log_level" mapstructure:"log_level"`

	// Pacing
	SimulationStartPacing bool   `json:"simulation_start_pacing" mapstructure:"simulation_start_pacing"`
	AuthoritativeChannel  string `json:"authoritative_channel" mapstructure:"authoritative_channel"`
	ChannelStaleMs        int    `json:"channel_stale_ms" mapstructure:"channel_stale_ms"`

	// Channels
	EnableReflex           bool `json:"enable_reflex" mapstructure:"enable_reflex"`
	EnableVulkan           bool `json:"enable_vulkan" mapstructure:"enable_vulkan"`
	EnableETW              bool `json:"enable_etw" mapstructure:"enable_etw"`
	InjectVulkanExtensions bool `json:"inject_vulkan_extensions" mapstructure:"inject_vulkan_extensions"`

	// Diagnostics harness
	DiagnosticsIntervalSeconds int `json:"diagnostics_interval_seconds" mapstructure:"diagnostics_interval_seconds"`
	SyntheticFPS               int `json:"synthetic_fps" mapstructure:"synthetic_fps"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:                      false,
		LogLevel:                   "info",
		SimulationStartPacing:      false,
		AuthoritativeChannel:       ChannelAuto,
		ChannelStaleMs:             500,
		EnableReflex:               true,
		EnableVulkan:               true,
		EnableETW:                  true,
		InjectVulkanExtensions:     false,
		DiagnosticsIntervalSeconds: 5,
		SyntheticFPS:               0,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}
	switch strings.ToLower(c.AuthoritativeChannel) {
	case ChannelAuto, ChannelReflex, ChannelVulkan, ChannelETW, ChannelSynthetic:
		c.AuthoritativeChannel = strings.ToLower(c.AuthoritativeChannel)
	default:
		c.AuthoritativeChannel = ChannelAuto
	}
	if c.ChannelStaleMs <= 0 {
		c.ChannelStaleMs = 500
	}
	if c.ChannelStaleMs > 60000 {
		c.ChannelStaleMs = 60000
	}
	if c.DiagnosticsIntervalSeconds <= 0 {
		c.DiagnosticsIntervalSeconds = 5
	}
	if c.SyntheticFPS < 0 {
		c.SyntheticFPS = 0
	}
	if c.SyntheticFPS > 1000 {
		c.SyntheticFPS = 1000
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("simulation_start_pacing", d.SimulationStartPacing)
	v.SetDefault("authoritative_channel", d.AuthoritativeChannel)
	v.SetDefault("channel_stale_ms", d.ChannelStaleMs)
	v.SetDefault("enable_reflex", d.EnableReflex)
	v.SetDefault("enable_vulkan", d.EnableVulkan)
	v.SetDefault("enable_etw", d.EnableETW)
	v.SetDefault("inject_vulkan_extensions", d.InjectVulkanExtensions)
	v.SetDefault("diagnostics_interval_seconds", d.DiagnosticsIntervalSeconds)
	v.SetDefault("synthetic_fps", d.SyntheticFPS)
}

// Load reads configuration from the given JSON file path and applies
// MARKER_PACER_* environment overrides. If the file does not exist the
// defaults (plus overrides) are returned. On parse error it returns defaults
// with the error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return DefaultConfig(), fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("decode config: %w", err)
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
