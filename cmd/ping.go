package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/cli"
	"github.com/teabranch/confluence-cli/internal/config"
	"github.com/teabranch/confluence-cli/internal/logging"
)

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the Confluence server is reachable",
		Long:  "Send an unauthenticated GET to the server base URL. Any status below 400 counts as reachable.",
		Example: `  # Check the configured server
  confluence ping

  # Check a specific server
  confluence ping --url https://wiki.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.URL == "" {
				return config.ErrURLNotSet
			}

			// No credentials are needed, so skip the password chain.
			client, err := confluenceclient.NewClient(confluenceclient.Config{
				BaseURL:  cfg.URL,
				Username: cfg.Username,
				Password: "-",
				Timeout:  cfg.Timeout,
				Insecure: cfg.Insecure,
				Logger:   logging.Default().Zap(),
			})
			if err != nil {
				return err
			}

			ctx, cancel := config.NewContext(cmd.Context(), cfg)
			defer cancel()

			status, err := client.Ping(ctx)
			if err != nil {
				return err
			}
			if status >= http.StatusBadRequest {
				return fmt.Errorf("server %s answered %d %s", client.BaseURL(), status, http.StatusText(status))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is reachable (%d %s)\n", client.BaseURL(), status, http.StatusText(status))
			return nil
		},
	}
}
