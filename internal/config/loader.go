package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Load constructs a new *Config by merging (in increasing precedence order):
//  1. built-in defaults (see New())
//  2. YAML config file (default $HOME/.confluence/config.yaml, override via --config / CONFLUENCE_CONFIG_FILE)
//  3. environment variables prefixed with CONFLUENCE_, plus USER_NAME and PASSWORD
//  4. command-line flags bound on the provided *cobra.Command
//
// The resulting configuration is validated before being returned.
//
// Pass nil for cmd if you do not wish to bind flags (e.g., in tests).
func Load(cmd *cobra.Command, explicitPath string) (*Config, error) {
	cfg := New()

	v := viper.New()

	// ---------- 1. Defaults ----------
	v.SetDefault("url", cfg.URL)
	v.SetDefault("username", cfg.Username)
	v.SetDefault("password", cfg.Password)
	v.SetDefault("insecure", cfg.Insecure)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("pageSize", cfg.PageSize)

	// ---------- 2. Config file ----------
	path := explicitPath
	if path == "" {
		path = os.Getenv("CONFLUENCE_CONFIG_FILE")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(homeDir, DefaultConfigDir))
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file means env + defaults. Any other error is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// ---------- 3. Environment variables ----------
	v.SetEnvPrefix("CONFLUENCE")
	v.AutomaticEnv()

	// The integration environment uses USER_NAME and PASSWORD without a prefix.
	_ = v.BindEnv("url", "CONFLUENCE_URL")
	_ = v.BindEnv("username", "CONFLUENCE_USERNAME", "USER_NAME")
	_ = v.BindEnv("password", "CONFLUENCE_PASSWORD", "PASSWORD")
	_ = v.BindEnv("pageSize", "CONFLUENCE_PAGE_SIZE")

	// ---------- 4. Flags ----------
	if cmd != nil {
		// Bind both immediate flags and parent persistent flags.
		_ = v.BindPFlags(cmd.Flags())
		_ = v.BindPFlags(cmd.PersistentFlags())

		// Map dashed flag names to camelCase keys expected in struct tags.
		if f := cmd.Flags().Lookup("page-size"); f != nil {
			_ = v.BindPFlag("pageSize", f)
		}
	}

	// ---------- Unmarshal ----------
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfigPath returns $HOME/.confluence/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, "config.yaml"), nil
}
