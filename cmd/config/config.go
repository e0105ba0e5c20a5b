package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teabranch/confluence-cli/internal/cli"
	"github.com/teabranch/confluence-cli/internal/config"
	"github.com/teabranch/confluence-cli/internal/fileutil"
	"github.com/teabranch/confluence-cli/internal/security"
)

// NewConfigCmd creates the config command with all its subcommands
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long: `Manage confluence-cli configuration.

Settings are merged from built-in defaults, the YAML config file
($HOME/.confluence/config.yaml), CONFLUENCE_* environment variables
(plus USER_NAME and PASSWORD) and command-line flags, in that order.`,
		Aliases:      []string{"cfg"},
		SilenceUsage: true,
	}

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newValidateCmd())

	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Print the configuration after merging every source. The password is masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return runShowConfig(cmd, cfg)
		},
	}

	return cmd
}

func runShowConfig(cmd *cobra.Command, cfg *config.Config) error {
	shown := *cfg
	shown.URL = security.MaskURL(cfg.URL)
	if shown.Password != "" {
		shown.Password = security.MaskCredential(cfg.Password)
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func newInitCmd() *cobra.Command {
	var serverURL string
	var username string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a configuration file holding the server URL and account name.

The password is never written; supply it through PASSWORD / CONFLUENCE_PASSWORD,
the platform credential store or the interactive prompt.`,
		Example: `  # Create $HOME/.confluence/config.yaml
  confluence config init --server https://wiki.example.com --user admin

  # Overwrite a specific file
  confluence config init --server http://localhost:8090 --config ./confluence.yaml --force`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{cli.SkipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			return runInitConfig(cmd, path, serverURL, username, force)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Confluence base URL")
	cmd.Flags().StringVar(&username, "user", config.DefaultUsername, "Account name")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	_ = cmd.MarkFlagRequired("server")

	return cmd
}

func runInitConfig(cmd *cobra.Command, path, serverURL, username string, force bool) error {
	if err := validateServerURL(serverURL); err != nil {
		return err
	}

	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	cfg := config.New()
	cfg.URL = serverURL
	cfg.Username = username

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if err := fileutil.NewSecureFileWriter(force).WriteFile(path, data); err != nil {
		if errors.Is(err, fileutil.ErrFileExists) {
			return cli.WrapWithSuggestion(err, "pass --force to overwrite it")
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file",
		Long: `Validate a confluence-cli configuration file.

This command checks:
- YAML syntax errors
- Valid field values (output format, timeout, pageSize)
- That url, when set, is an absolute http(s) URL`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{cli.SkipConfigAnnotation: "true"},
		Example: `  # Validate the default config file
  confluence config validate

  # Validate a specific file
  confluence config validate ./confluence.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if len(args) > 0 {
				path = args[0]
			}
			return runValidateConfig(cmd, path)
		},
	}

	return cmd
}

func runValidateConfig(cmd *cobra.Command, path string) error {
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // reading a user-specified path is expected for a CLI tool
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("configuration file not found: %s", path)
		}
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid YAML syntax: %w", err)
	}

	cfg, err := config.Load(nil, path)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.URL != "" {
		if err := validateServerURL(cfg.URL); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration file %s is valid\n", path)
	return nil
}

func validateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url %q must be an absolute http(s) URL", raw)
	}
	return nil
}
