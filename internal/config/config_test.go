package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.REPL.OutputFormat != "table" {
		t.Errorf("Expected default output format 'table', got %s", cfg.REPL.OutputFormat)
	}
	if cfg.REPL.Prompt != "chql> " {
		t.Errorf("Expected default prompt 'chql> ', got %q", cfg.REPL.Prompt)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		shouldError bool
	}{
		{
			name:        "valid config",
			modify:      func(c *Config) {},
			shouldError: false,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Log.Level = "invalid"
			},
			shouldError: true,
		},
		{
			name: "invalid output format",
			modify: func(c *Config) {
				c.REPL.OutputFormat = "xml"
			},
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := Load("")
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.shouldError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test.yaml")

	content := `
log:
  level: debug
repl:
  prompt: "> "
  output_format: csv
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.REPL.Prompt != "> " {
		t.Errorf("Expected prompt '> ', got %q", cfg.REPL.Prompt)
	}
	if cfg.REPL.OutputFormat != "csv" {
		t.Errorf("Expected output format csv, got %s", cfg.REPL.OutputFormat)
	}
}
