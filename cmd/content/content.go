package content

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/cli"
	confluenceservice "github.com/teabranch/confluence-cli/internal/services/confluence"
	"github.com/teabranch/confluence-cli/internal/ui"
	"github.com/teabranch/confluence-cli/internal/validation"
)

// NewContentCmd creates the content command with all its subcommands
func NewContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Manage pages and blog posts",
		Long: `Create, read, update, delete and query Confluence content.

Bodies are written in the storage format (XHTML-based markup).`,
		Aliases: []string{"page", "pages"},
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newChildrenCmd())
	cmd.AddCommand(newVersionsCmd())
	cmd.AddCommand(newPruneCmd())

	return cmd
}

// bodyFlags reads a storage body from --body or --body-file ("-" for stdin).
type bodyFlags struct {
	body string
	file string
}

func addBodyFlags(cmd *cobra.Command, b *bodyFlags) {
	cmd.Flags().StringVar(&b.body, "body", "", "Body in storage format")
	cmd.Flags().StringVar(&b.file, "body-file", "", "Read the body from a file (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
}

func (b *bodyFlags) set(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("body") || cmd.Flags().Changed("body-file")
}

func (b *bodyFlags) read(cmd *cobra.Command) (string, error) {
	switch b.file {
	case "":
		return b.body, nil
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read body from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(b.file)
		if err != nil {
			return "", fmt.Errorf("read body file: %w", err)
		}
		return string(data), nil
	}
}

var (
	contentTypes    = []string{string(confluenceclient.ContentTypePage), string(confluenceclient.ContentTypeBlogPost)}
	contentStatuses = []string{
		string(confluenceclient.ContentStatusCurrent),
		string(confluenceclient.ContentStatusTrashed),
		string(confluenceclient.ContentStatusDraft),
		string(confluenceclient.ContentStatusHistorical),
	}
)

// validateFlagValue checks an enumerated flag. An empty value means the flag was left unset.
func validateFlagValue(value, flag string, allowed []string) error {
	if value == "" {
		return nil
	}
	return validation.ValidateEnum(value, "--"+flag, allowed)
}

func newCreateCmd() *cobra.Command {
	var req confluenceservice.CreateContentRequest
	var contentType string
	var body bodyFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a page or blog post",
		Example: `  # Create a page
  confluence content create --space TSTCONTENT --title "full test page" --body "<p>hello</p>"

  # Create a child page from a file
  confluence content create --space TSTCONTENT --title "Child Page" --parent 65601 --body-file child.xhtml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateEnum(contentType, "--type", contentTypes); err != nil {
				return err
			}
			text, err := body.read(cmd)
			if err != nil {
				return err
			}
			req.Body = text
			req.Type = confluenceclient.ContentType(contentType)

			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			service := confluenceservice.NewContentServiceWithLogger(session.Client, session.Logger)
			created, err := service.Create(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to create content: %w", err)
			}
			return session.Formatter(cmd).FormatContent(created)
		},
	}

	cmd.Flags().StringVar(&req.SpaceKey, "space", "", "Space key")
	cmd.Flags().StringVar(&req.Title, "title", "", "Title (at most 255 characters)")
	cmd.Flags().StringVar(&contentType, "type", string(confluenceclient.ContentTypePage), "Content type: page, blogpost")
	cmd.Flags().StringVar(&req.ParentID, "parent", "", "ID of the parent page")
	cmd.Flags().StringSliceVar(&req.Expand, "expand", nil, "Properties to expand in the response")
	addBodyFlags(cmd, &body)
	_ = cmd.MarkFlagRequired("space")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newGetCmd() *cobra.Command {
	var expand []string

	cmd := &cobra.Command{
		Use:   "get <content-id>",
		Short: "Get content by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			service := confluenceservice.NewContentServiceWithLogger(session.Client, session.Logger)
			content, err := service.GetByID(ctx, args[0], expand...)
			if err != nil {
				return fmt.Errorf("failed to get content: %w", err)
			}
			return session.Formatter(cmd).FormatContent(content)
		},
	}

	cmd.Flags().StringSliceVar(&expand, "expand",
		[]string{confluenceclient.ExpandBodyStorage, confluenceclient.ExpandVersion, confluenceclient.ExpandSpace},
		"Properties to expand")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	var req confluenceservice.UpdateContentRequest
	var contentType string
	var body bodyFlags

	cmd := &cobra.Command{
		Use:   "update <content-id>",
		Short: "Write a new version of a page or blog post",
		Long: `Replace the title and/or body of existing content.

Omitted fields keep their current value. Without --version the next version number
is looked up from the server.`,
		Example: `  # Replace the body
  confluence content update 65601 --body "<p>updated</p>"

  # Rename, asserting the version being written
  confluence content update 65601 --title "new title" --version 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Title == "" && !body.set(cmd) {
				return fmt.Errorf("nothing to update: specify --title, --body or --body-file")
			}
			if err := validateFlagValue(contentType, "type", contentTypes); err != nil {
				return err
			}
			req.ID = args[0]
			req.Type = confluenceclient.ContentType(contentType)

			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			service := confluenceservice.NewContentServiceWithLogger(session.Client, session.Logger)

			if body.set(cmd) {
				if req.Body, err = body.read(cmd); err != nil {
					return err
				}
			}

			// Fill omitted fields from the current version.
			if req.Title == "" || !body.set(cmd) {
				current, err := service.GetByID(ctx, req.ID, confluenceclient.ExpandBodyStorage, confluenceclient.ExpandVersion)
				if err != nil {
					return fmt.Errorf("failed to get content: %w", err)
				}
				if req.Title == "" {
					req.Title = current.Title
				}
				if !body.set(cmd) {
					req.Body = current.StorageValue()
				}
				if req.Version == 0 {
					req.Version = current.VersionNumber() + 1
				}
				if req.Type == "" {
					req.Type = current.Type
				}
			} else if req.Version == 0 || req.Type == "" {
				next, currentType, err := service.NextVersion(ctx, req.ID)
				if err != nil {
					return fmt.Errorf("failed to resolve next version: %w", err)
				}
				if req.Version == 0 {
					req.Version = next
				}
				if req.Type == "" {
					req.Type = currentType
				}
			}

			updated, err := service.Update(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to update content: %w", err)
			}
			return session.Formatter(cmd).FormatContent(updated)
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "New title")
	cmd.Flags().IntVar(&req.Version, "version", 0, "Version number to write: current plus one (default: looked up)")
	cmd.Flags().StringVar(&contentType, "type", "", "Content type: page, blogpost (default: unchanged)")
	cmd.Flags().StringSliceVar(&req.Expand, "expand", nil, "Properties to expand in the response (default body.storage,version)")
	addBodyFlags(cmd, &body)

	return cmd
}

func newDeleteCmd() *cobra.Command {
	var status string
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <content-id>",
		Short: "Move content to the trash, or purge it from the trash",
		Example: `  # Trash a page
  confluence content delete 65601 --yes

  # Purge a trashed page
  confluence content delete 65601 --status trashed --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := validateFlagValue(status, "status", contentStatuses); err != nil {
				return err
			}

			confirmed, err := ui.NewConfirmationPrompt(yes).ConfirmDeletion("content", id)
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

			service := confluenceservice.NewContentServiceWithLogger(session.Client, session.Logger)
			if err := service.Delete(ctx, id, confluenceclient.ContentStatus(status)); err != nil {
				return fmt.Errorf("failed to delete content: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Content %s deleted\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Status of the content to delete: current (trash) or trashed (purge)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

// queryFlags binds the content query filters.
func queryFlags(cmd *cobra.Command, query *confluenceclient.ContentQuery, contentType, status *string) {
	cmd.Flags().StringVar(&query.SpaceKey, "space", "", "Space key")
	cmd.Flags().StringVar(&query.Title, "title", "", "Exact title")
	cmd.Flags().StringVar(contentType, "type", string(confluenceclient.ContentTypePage), "Content type: page, blogpost")
	cmd.Flags().StringVar(status, "status", "", "Content status: current, trashed, draft")
}

func validateQueryFlags(contentType, status string) error {
	if err := validateFlagValue(contentType, "type", contentTypes); err != nil {
		return err
	}
	return validateFlagValue(status, "status", contentStatuses)
}

func newListCmd() *cobra.Command {
	var query confluenceclient.ContentQuery
	var contentType, status string
	var paging cli.PaginationFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Query content by space, type and title",
		Example: `  # Pages in a space
  confluence content list --space TSTCONTENT

  # Look up a page by title
  confluence content list --space TSTCONTENT --title "full test page"

  # Every blog post, as YAML
  confluence content list --space TSTCONTENT --type blogpost --all -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateQueryFlags(contentType, status); err != nil {
				return err
			}
			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			if err := paging.Resolve(session.Config.PageSize); err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			query.Type = confluenceclient.ContentType(contentType)
			query.Status = confluenceclient.ContentStatus(status)
			query.Limit = paging.Limit
			query.Expand = []string{confluenceclient.ExpandSpace, confluenceclient.ExpandVersion}

			service := confluenceservice.NewContentServiceWithLogger(session.Client, session.Logger)
			formatter := session.Formatter(cmd)

			if paging.All {
				items := []confluenceclient.Content{}
				err := service.Walk(ctx, query, func(c confluenceclient.Content) error {
					items = append(items, c)
					return nil
				})
				if err != nil {
					return fmt.Errorf("failed to list content: %w", err)
				}
				return formatter.FormatContents(items)
			}

			page, err := service.ListPage(ctx, query, paging.Start)
			if err != nil {
				return fmt.Errorf("failed to list content: %w", err)
			}
			if err := formatter.FormatContents(page.Results); err != nil {
				return err
			}
			session.Logger.Info(cli.Summary(paging.Start, len(page.Results), page.HasNext()))
			return nil
		},
	}

	queryFlags(cmd, &query, &contentType, &status)
	cli.AddPaginationFlags(cmd, &paging)

	return cmd
}

func newChildrenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "children <content-id>",
		Short: "List the direct child pages of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			service := confluenceservice.NewContentServiceWithLogger(session.Client, session.Logger)
			children, err := service.GetChildPages(ctx, args[0], confluenceclient.ExpandVersion)
			if err != nil {
				return fmt.Errorf("failed to list child pages: %w", err)
			}
			return session.Formatter(cmd).FormatContents(children)
		},
	}

	return cmd
}

func newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions <content-id>",
		Short: "Show the version history of a page or blog post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			service := confluenceservice.NewContentServiceWithLogger(session.Client, session.Logger)
			versions, err := service.Versions(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list versions: %w", err)
			}
			return session.Formatter(cmd).FormatVersions(versions)
		},
	}

	return cmd
}

func newPruneCmd() *cobra.Command {
	var query confluenceclient.ContentQuery
	var contentType, status, deleteStatus string
	var yes bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all matching content in a space except its homepage",
		Example: `  # Empty a test space
  confluence content prune --space TSTCONTENT --yes

  # Remove every blog post titled "draft"
  confluence content prune --space TSTCONTENT --type blogpost --title draft --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateQueryFlags(contentType, status); err != nil {
				return err
			}
			if err := validateFlagValue(deleteStatus, "delete-status", contentStatuses); err != nil {
				return err
			}
			query.Type = confluenceclient.ContentType(contentType)
			query.Status = confluenceclient.ContentStatus(status)

			confirmed, err := ui.NewConfirmationPrompt(yes).Confirm(
				fmt.Sprintf("Delete all matching %s content in space '%s' except its homepage?", contentType, query.SpaceKey))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Prune cancelled")
				return nil
			}

			session, err := cli.NewSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := session.Context(cmd)
			defer cancel()

			quiet, _ := cmd.Flags().GetBool("quiet")
			spinner := ui.NewSpinner(cmd.ErrOrStderr(), "Pruning "+query.SpaceKey, ui.IsInteractive() && !quiet)
			spinner.Start()

			service := confluenceservice.NewContentServiceWithLogger(session.Client, session.Logger)
			deleted, err := service.Prune(ctx, query, confluenceclient.ContentStatus(deleteStatus))
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Pruning stopped after %d deletions", deleted))
				return fmt.Errorf("failed to prune space: %w", err)
			}
			spinner.Stop(fmt.Sprintf("Deleted %d items from %s", deleted, query.SpaceKey))
			return nil
		},
	}

	queryFlags(cmd, &query, &contentType, &status)
	cmd.Flags().StringVar(&deleteStatus, "delete-status", "", "Status passed to each delete: current (trash) or trashed (purge)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("space")

	return cmd
}
