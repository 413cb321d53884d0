// Package config handles configuration loading and validation for chql's
// CLI and embedding entry points.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for a chql process.
type Config struct {
	Log  LogConfig  `mapstructure:"log"`
	REPL REPLConfig `mapstructure:"repl"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// REPLConfig holds interactive-shell configuration.
type REPLConfig struct {
	Prompt       string `mapstructure:"prompt"`
	HistoryFile  string `mapstructure:"history_file"`
	OutputFormat string `mapstructure:"output_format"` // "table", "csv", "tsv"
}

// defaultConfig returns chql's built-in configuration defaults.
func defaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		REPL: REPLConfig{
			Prompt:       "chql> ",
			HistoryFile:  "~/.chql_history",
			OutputFormat: "table",
		},
	}
}

// Load reads configuration from an optional file and from CHQL_-prefixed
// environment variables, falling back to defaults for anything unset.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)
	v.SetDefault("repl.prompt", cfg.REPL.Prompt)
	v.SetDefault("repl.history_file", cfg.REPL.HistoryFile)
	v.SetDefault("repl.output_format", cfg.REPL.OutputFormat)

	v.SetEnvPrefix("CHQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("chql")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.chql")
		v.AddConfigPath("/etc/chql")

		// It's okay if no config file is found - we use defaults.
		_ = v.ReadInConfig()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are sensible.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"table": true, "csv": true, "tsv": true}
	if !validFormats[strings.ToLower(c.REPL.OutputFormat)] {
		return fmt.Errorf("invalid repl output_format: %s", c.REPL.OutputFormat)
	}

	return nil
}
