package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	configcmd "github.com/teabranch/confluence-cli/cmd/config"
	"github.com/teabranch/confluence-cli/cmd/content"
	"github.com/teabranch/confluence-cli/cmd/infra"
	"github.com/teabranch/confluence-cli/cmd/space"
	"github.com/teabranch/confluence-cli/internal/cli"
	"github.com/teabranch/confluence-cli/internal/config"
	"github.com/teabranch/confluence-cli/internal/logging"
)

var (
	verbose    bool
	quiet      bool
	configPath string
	logFormat  string
	logLevel   string

	// Keep references for global flags.
	outputFmt  string
	timeoutDur time.Duration
	serverURL  string
	username   string
	insecure   bool

	// Build information
	appVersion string
	appCommit  string
	appDate    string
	appBuiltBy string

	logger         *logging.Logger
	errorFormatter *cli.ErrorFormatter
)

// NewRootCmd builds the command tree. Execute uses a single instance; tests build their own.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "confluence",
		Short:         "CLI for Confluence spaces and content",
		Long:          "confluence manages spaces, pages and blog posts on a Confluence Server or Data Center instance through its REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 1. Logging
			logConfig := &logging.Config{
				Level:       logging.ParseLevel(logLevel),
				Format:      logFormat,
				Output:      os.Stderr,
				Quiet:       quiet,
				Verbose:     verbose,
				MaskSecrets: true,
			}
			logger = logging.New(logConfig)
			logging.SetDefault(logger)

			errorFormatter = cli.NewErrorFormatter(verbose)

			// 2. Merged configuration
			if cmd.Annotations[cli.SkipConfigAnnotation] == "true" {
				return nil
			}
			cfg, err := config.Load(cmd, configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cmd.SetContext(cli.WithConfig(cmd.Context(), cfg))

			logger.Debug("Root command initialization completed",
				"verbose", verbose,
				"quiet", quiet,
				"log_format", logFormat,
				"config_path", configPath,
				"url", cfg.URL,
				"username", cfg.Username)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logger != nil {
				logger.Debug("Command execution completed", "command", cmd.CommandPath())
			}
			return nil
		},
	}

	rootCmd.AddCommand(space.NewSpaceCmd())
	rootCmd.AddCommand(content.NewContentCmd())
	rootCmd.AddCommand(infra.NewInfraCmd())
	rootCmd.AddCommand(configcmd.NewConfigCmd())
	rootCmd.AddCommand(newPingCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Logging options
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging with detailed output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log output format: text, json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Configuration discovery
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $HOME/.confluence/config.yaml)")

	// Server and runtime options
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", string(config.OutputTable), "Output format: table, text, json, yaml")
	rootCmd.PersistentFlags().DurationVar(&timeoutDur, "timeout", config.DefaultTimeout, "Context timeout (e.g., 30s, 1m)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "Confluence base URL (env CONFLUENCE_URL)")
	rootCmd.PersistentFlags().StringVar(&username, "username", config.DefaultUsername, "Account name (env USER_NAME)")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return rootCmd
}

// Execute runs the confluence root command.
func Execute(version, commit, date, builtBy string) {
	appVersion = version
	appCommit = commit
	appDate = date
	appBuiltBy = builtBy

	ctx, stop := cli.WithInterrupt(context.Background())
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		if errorFormatter == nil {
			errorFormatter = cli.NewErrorFormatter(verbose)
		}
		fmt.Fprintln(os.Stderr, errorFormatter.Format(err))

		if logger != nil {
			logger.Debug("Command execution failed", "error", err.Error())
		}
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{cli.SkipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "confluence-cli version: %s\n", appVersion)
			fmt.Fprintf(out, "Build time: %s\n", appDate)
			fmt.Fprintf(out, "Git commit: %s\n", appCommit)
			fmt.Fprintf(out, "Built by: %s\n", appBuiltBy)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			return nil
		},
	}
}
