// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Viewport() ViewportConfig
	Style() StyleConfig
	Output() OutputConfig

	// Setters used by command line flags, which take precedence over the file.
	SetViewport(width, height float64)
	SetStyleConcurrency(int)
	SetOutputFormat(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	ViewportCfg ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	StyleCfg    StyleConfig    `mapstructure:"style" yaml:"style"`
	OutputCfg   OutputConfig   `mapstructure:"output" yaml:"output"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Viewport() ViewportConfig { return c.ViewportCfg }
func (c *Config) Style() StyleConfig       { return c.StyleCfg }
func (c *Config) Output() OutputConfig     { return c.OutputCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetViewport(width, height float64) {
	c.ViewportCfg.Width = width
	c.ViewportCfg.Height = height
}
func (c *Config) SetStyleConcurrency(n int) { c.StyleCfg.Concurrency = n }
func (c *Config) SetOutputFormat(f string)  { c.OutputCfg.Format = f }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ViewportConfig is the size of the initial containing block in pixels.
// The height is informational; documents always start at the top edge.
type ViewportConfig struct {
	Width  float64 `mapstructure:"width" yaml:"width"`
	Height float64 `mapstructure:"height" yaml:"height"`
}

// StyleConfig tunes style tree construction. A concurrency of 1 builds the
// tree sequentially.
type StyleConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// OutputConfig selects how the render command prints the layout tree.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

// OutputFormats lists the accepted output.format values.
var OutputFormats = []string{"json", "yaml", "text"}

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
	v.SetDefault("logger.service_name", "boxflow")
	// Empty disables file logging; the CLI writes results to stdout.
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Viewport --
	v.SetDefault("viewport.width", 800.0)
	v.SetDefault("viewport.height", 600.0)

	// -- Style --
	v.SetDefault("style.concurrency", 1)

	// -- Output --
	v.SetDefault("output.format", "json")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind the settings most often overridden from the environment.
	v.BindEnv("viewport.width", "BOXFLOW_VIEWPORT_WIDTH")
	v.BindEnv("viewport.height", "BOXFLOW_VIEWPORT_HEIGHT")
	v.BindEnv("style.concurrency", "BOXFLOW_STYLE_CONCURRENCY")
	v.BindEnv("output.format", "BOXFLOW_OUTPUT_FORMAT")
	v.BindEnv("logger.level", "BOXFLOW_LOGGER_LEVEL")

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
	if err := c.ViewportCfg.Validate(); err != nil {
		return err
	}
	if c.StyleCfg.Concurrency <= 0 {
		return fmt.Errorf("style.concurrency must be a positive integer")
	}
	if err := c.OutputCfg.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks that both viewport dimensions are positive.
func (vp *ViewportConfig) Validate() error {
	if vp.Width <= 0 {
		return fmt.Errorf("viewport.width must be positive")
	}
	if vp.Height <= 0 {
		return fmt.Errorf("viewport.height must be positive")
	}
	return nil
}

// Validate checks the output format against OutputFormats.
func (o *OutputConfig) Validate() error {
	for _, f := range OutputFormats {
		if strings.EqualFold(o.Format, f) {
			return nil
		}
	}
	return fmt.Errorf("output.format must be one of %s, got %q", strings.Join(OutputFormats, ", "), o.Format)
}
