package space

import (
	"fmt"

	"github.com/spf13/cobra"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/cli"
	confluenceservice "github.com/teabranch/confluence-cli/internal/services/confluence"
	"github.com/teabranch/confluence-cli/internal/ui"
)

// NewSpaceCmd creates the space command with all its subcommands
func NewSpaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "space",
		Short:   "Manage Confluence spaces",
		Long:    "Create, inspect, rename, delete and list Confluence spaces.",
		Aliases: []string{"spaces"},
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func newCreateCmd() *cobra.Command {
	var key string
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a global space",
		Example: `  # Create a space
  confluence space create --key TSTSPACE --name "Heroes Test"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			service := confluenceservice.NewSpacesServiceWithLogger(session.Client, session.Logger)
			created, err := service.Create(ctx, key, name)
			if err != nil {
				return fmt.Errorf("failed to create space: %w", err)
			}
			return session.Formatter(cmd).FormatSpace(created)
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Space key (letters and digits)")
	cmd.Flags().StringVar(&name, "name", "", "Space name")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newGetCmd() *cobra.Command {
	var expand []string

	cmd := &cobra.Command{
		Use:   "get <space-key>",
		Short: "Get a space by key",
		Example: `  # Show a space with its description and homepage
  confluence space get TSTSPACE --expand description.plain,homepage`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			service := confluenceservice.NewSpacesServiceWithLogger(session.Client, session.Logger)
			space, err := service.Get(ctx, args[0], expand...)
			if err != nil {
				return fmt.Errorf("failed to get space: %w", err)
			}
			return session.Formatter(cmd).FormatSpace(space)
		},
	}

	cmd.Flags().StringSliceVar(&expand, "expand", []string{confluenceclient.ExpandDescription, confluenceclient.ExpandHomepage}, "Properties to expand")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	var name string
	var description string

	cmd := &cobra.Command{
		Use:   "update <space-key>",
		Short: "Rename a space or change its description",
		Example: `  # Rename a space
  confluence space update TSTSPACE --name "Heroes Test (renamed)"

  # Only change the description
  confluence space update TSTSPACE --description "Scratch space for tests"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descChanged := cmd.Flags().Changed("description")
			if name == "" && !descChanged {
				return fmt.Errorf("nothing to update: specify --name or --description")
			}

			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			service := confluenceservice.NewSpacesServiceWithLogger(session.Client, session.Logger)

			// The API requires a name on every update.
			if name == "" {
				current, err := service.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get space: %w", err)
				}
				name = current.Name
			}

			var desc *string
			if descChanged {
				desc = &description
			}

			updated, err := service.Update(ctx, args[0], name, desc)
			if err != nil {
				return fmt.Errorf("failed to update space: %w", err)
			}
			return session.Formatter(cmd).FormatSpace(updated)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New space name")
	cmd.Flags().StringVar(&description, "description", "", "New plain-text description")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <space-key>",
		Short: "Delete a space and all of its content",
		Example: `  # Delete without prompting
  confluence space delete TSTSPACE --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			confirmed, err := ui.NewConfirmationPrompt(yes).ConfirmDeletion("space", key)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
				return nil
			}

			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			service := confluenceservice.NewSpacesServiceWithLogger(session.Client, session.Logger)
			if err := service.Delete(ctx, key); err != nil {
				return fmt.Errorf("failed to delete space: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Space %s deleted\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func newListCmd() *cobra.Command {
	var paging cli.PaginationFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List spaces",
		Example: `  # First page
  confluence space list

  # Every space as JSON
  confluence space list --all -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			if err := paging.Resolve(session.Config.PageSize); err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			service := confluenceservice.NewSpacesServiceWithLogger(session.Client, session.Logger)
			formatter := session.Formatter(cmd)

			if paging.All {
				spaces, err := service.List(ctx, paging.Limit)
				if err != nil {
					return fmt.Errorf("failed to list spaces: %w", err)
				}
				return formatter.FormatSpaces(spaces)
			}

			page, err := service.ListPage(ctx, paging.Start, paging.Limit)
			if err != nil {
				return fmt.Errorf("failed to list spaces: %w", err)
			}
			if err := formatter.FormatSpaces(page.Results); err != nil {
				return err
			}
			session.Logger.Info(cli.Summary(paging.Start, len(page.Results), page.HasNext()))
			return nil
		},
	}

	cli.AddPaginationFlags(cmd, &paging)

	return cmd
}
