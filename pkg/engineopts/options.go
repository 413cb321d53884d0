// Package engineopts holds engine-level session settings: the values a
// host-supplied YAML document, or a SQL `SETTINGS` clause, can override.
// Unlike internal/config (viper, process-level: REPL prompt, log output),
// these travel with one engine.Session rather than with the host process.
package engineopts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options are a session's resolved engine settings.
type Options struct {
	// MaxResultRows caps how many rows a single SELECT returns; 0 means
	// unlimited. Advisory-enforced: rows beyond the cap are dropped after
	// ORDER BY/LIMIT, not streamed around.
	MaxResultRows int `yaml:"max_result_rows"`

	// MaxExecutionTimeMS is recorded, not enforced: the executor has no
	// suspension points to cancel mid-statement (§5 Scheduling model).
	MaxExecutionTimeMS int `yaml:"max_execution_time_ms"`

	// DefaultNulls is "first" or "last": where a NULL sorts in ORDER BY
	// when the query gives no explicit NULLS FIRST/LAST.
	DefaultNulls string `yaml:"default_nulls"`

	// UnknownSettings is "ignore" or "error": how a SETTINGS clause key
	// this package doesn't recognize is handled.
	UnknownSettings string `yaml:"unknown_settings"`
}

// Default returns the engine's out-of-the-box settings: no row cap, no
// time cap recorded, NULLS FIRST, unknown SETTINGS keys ignored.
func Default() *Options {
	return &Options{
		MaxResultRows:      0,
		MaxExecutionTimeMS: 0,
		DefaultNulls:       "first",
		UnknownSettings:    "ignore",
	}
}

// Load parses a YAML document into Options, starting from Default() so
// any field the document omits keeps its default, then validates it.
func Load(data []byte) (*Options, error) {
	opts := Default()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("engineopts: parse settings: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// LoadFile reads and parses a YAML settings file.
func LoadFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engineopts: read %s: %w", path, err)
	}
	return Load(data)
}

// Validate reports whether o's fields hold recognized values.
func (o *Options) Validate() error {
	switch strings.ToLower(o.DefaultNulls) {
	case "first", "last":
	default:
		return fmt.Errorf("engineopts: default_nulls must be \"first\" or \"last\", got %q", o.DefaultNulls)
	}
	switch strings.ToLower(o.UnknownSettings) {
	case "error", "ignore":
	default:
		return fmt.Errorf("engineopts: unknown_settings must be \"error\" or \"ignore\", got %q", o.UnknownSettings)
	}
	if o.MaxResultRows < 0 {
		return fmt.Errorf("engineopts: max_result_rows must be >= 0, got %d", o.MaxResultRows)
	}
	if o.MaxExecutionTimeMS < 0 {
		return fmt.Errorf("engineopts: max_execution_time_ms must be >= 0, got %d", o.MaxExecutionTimeMS)
	}
	return nil
}

// NullsFirstDefault reports whether a NULL should sort first when a query
// gives no explicit NULLS FIRST/LAST.
func (o *Options) NullsFirstDefault() bool {
	return !strings.EqualFold(o.DefaultNulls, "last")
}

// RejectsUnknownSettings reports whether an unrecognized SETTINGS key
// should fail the statement rather than be silently ignored.
func (o *Options) RejectsUnknownSettings() bool {
	return strings.EqualFold(o.UnknownSettings, "error")
}

// knownSettingKeys are the SETTINGS clause keys the executor understands;
// every other key is governed by UnknownSettings.
var knownSettingKeys = map[string]bool{
	"max_result_rows":       true,
	"max_execution_time_ms": true,
}

// IsKnownSettingKey reports whether name (case-insensitive) is a
// recognized SETTINGS clause key.
func IsKnownSettingKey(name string) bool {
	return knownSettingKeys[strings.ToLower(name)]
}
