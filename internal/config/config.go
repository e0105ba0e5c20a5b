// Package config defines the runtime configuration model and helpers.
package config

import (
	"fmt"
	"time"
)

// OutputFormat represents the supported output serialization formats.
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputText  OutputFormat = "text"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

// DefaultTimeout is the fallback duration applied when the user does not
// specify `--timeout`, `CONFLUENCE_TIMEOUT`, or `timeout` YAML key.
const DefaultTimeout = 30 * time.Second

// DefaultUsername matches the Confluence bootstrap administrator.
const DefaultUsername = "admin"

// DefaultPageSize is the number of items requested per page when listing.
const DefaultPageSize = 25

// MaxPageSize is the largest page size the server honours.
const MaxPageSize = 500

// DefaultConfigDir is the default directory under the user's home for config files.
const DefaultConfigDir = ".confluence"

// Config is the fully-resolved runtime configuration for a single command invocation.
//
// Use `mapstructure` tags so Viper can unmarshal seamlessly regardless of source.
// Env variables use the CONFLUENCE_ prefix; see Load for the legacy names also honoured.
type Config struct {
	// Server
	URL      string `mapstructure:"url" yaml:"url"`
	Username string `mapstructure:"username" yaml:"username"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure,omitempty"`

	// Generic CLI behaviour
	Output   OutputFormat  `mapstructure:"output" yaml:"output"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PageSize int           `mapstructure:"pageSize" yaml:"pageSize"`

	// Credentials (avoid printing/logging!)
	Password string `mapstructure:"password" yaml:"password,omitempty"`
}

// New returns a Config populated with builtin defaults.
func New() *Config {
	return &Config{
		Username: DefaultUsername,
		Output:   OutputTable,
		Timeout:  DefaultTimeout,
		PageSize: DefaultPageSize,
	}
}

// Validate performs sanity checks after the full precedence merge.
// The server URL is checked when a client is built so that commands such as
// `config show` work without one.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputTable, OutputText, OutputJSON, OutputYAML, "":
	default:
		return fmt.Errorf("unsupported output format: %s", c.Output)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return fmt.Errorf("pageSize must be between 1 and %d", MaxPageSize)
	}

	return nil
}
