package cli

import (
	"context"

	"github.com/spf13/cobra"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/config"
	"github.com/teabranch/confluence-cli/internal/logging"
	"github.com/teabranch/confluence-cli/internal/output"
)

// SkipConfigAnnotation marks commands that must run without loading the config file, such as
// `config init` creating it.
const SkipConfigAnnotation = "confluence.skip-config"

type configKey struct{}

// WithConfig stores the loaded configuration on a command context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// LoadConfig returns the configuration stored by the root command, loading it from the
// --config flag when absent.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	if ctx := cmd.Context(); ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok && cfg != nil {
			return cfg, nil
		}
	}
	path, _ := cmd.Flags().GetString("config")
	return config.Load(cmd, path)
}

// Session bundles what a command needs to talk to Confluence.
type Session struct {
	Config *config.Config
	Client *confluenceclient.Client
	Logger *logging.Logger
}

// NewSession loads the configuration and builds an authenticated client.
func NewSession(cmd *cobra.Command) (*Session, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.Default()
	client, err := cfg.CreateClient(logger.Zap())
	if err != nil {
		return nil, err
	}
	return &Session{Config: cfg, Client: client, Logger: logger}, nil
}

// Context derives the per-command context bounded by the configured timeout.
func (s *Session) Context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return config.NewContext(cmd.Context(), s.Config)
}

// Formatter writes in the configured output format to the command's stdout.
func (s *Session) Formatter(cmd *cobra.Command) *output.Formatter {
	return output.NewFormatter(s.Config.Output, cmd.OutOrStdout())
}
