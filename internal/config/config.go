// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Reactivation delays outside this window are clamped, not rejected.
const (
	MinReactivationDelay = 10 * time.Second
	MaxReactivationDelay = 60 * time.Second
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Automation AutomationConfig `mapstructure:"automation" yaml:"automation"`
	State      StateConfig      `mapstructure:"state" yaml:"state"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the browser instance the tapper drives.
type BrowserConfig struct {
	TargetURL         string         `mapstructure:"target_url" yaml:"target_url"`
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	Debug             bool           `mapstructure:"debug" yaml:"debug"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	TapKey            string         `mapstructure:"tap_key" yaml:"tap_key"`
	ChatInputSelector string         `mapstructure:"chat_input_selector" yaml:"chat_input_selector"`
	ChatBoxSelector   string         `mapstructure:"chat_box_selector" yaml:"chat_box_selector"`
}

// AutomationConfig tunes the tapping state machine.
//
// IntervalMs of zero selects human mode, where session and cooldown windows
// with randomized tap pacing replace the fixed interval.
type AutomationConfig struct {
	IntervalMs               int  `mapstructure:"interval_ms" yaml:"interval_ms"`
	ReactivationDelaySeconds int  `mapstructure:"reactivation_delay_seconds" yaml:"reactivation_delay_seconds"`
	StartActive              bool `mapstructure:"start_active" yaml:"start_active"`
}

// StateConfig locates the persisted tap counter.
type StateConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// Interval returns the configured tap interval. Zero means human mode.
func (a AutomationConfig) Interval() time.Duration {
	return time.Duration(a.IntervalMs) * time.Millisecond
}

// ReactivationDelay returns the configured countdown length, clamped to the
// supported window.
func (a AutomationConfig) ReactivationDelay() time.Duration {
	d := time.Duration(a.ReactivationDelaySeconds) * time.Second
	if d < MinReactivationDelay {
		return MinReactivationDelay
	}
	if d > MaxReactivationDelay {
		return MaxReactivationDelay
	}
	return d
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "taptap-cli")
	v.SetDefault("logger.log_file", "taptap.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.tap_key", " ")
	v.SetDefault("browser.chat_input_selector", "#chat-input")
	v.SetDefault("browser.chat_box_selector", "#chat-box")
	v.SetDefault("browser.viewport", map[string]int{"width": 1280, "height": 800})

	// -- Automation --
	v.SetDefault("automation.interval_ms", 0)
	v.SetDefault("automation.reactivation_delay_seconds", 10)
	v.SetDefault("automation.start_active", true)

	// -- State --
	v.SetDefault("state.file", "taptap-state.json")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Automation.IntervalMs < 0 {
		return fmt.Errorf("automation.interval_ms must be zero (human mode) or positive")
	}
	if c.Browser.TapKey == "" {
		return fmt.Errorf("browser.tap_key is a required configuration field")
	}
	if c.Browser.ChatInputSelector == "" || c.Browser.ChatBoxSelector == "" {
		return fmt.Errorf("browser.chat_input_selector and browser.chat_box_selector are required")
	}
	if c.State.File == "" {
		return fmt.Errorf("state.file is a required configuration field")
	}
	return nil
}
