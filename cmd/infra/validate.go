package infra

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teabranch/confluence-cli/internal/cli"
)

// ValidateOptions contains the options for the validate command
type ValidateOptions struct {
	Files     []string
	StrictEnv bool
}

// NewValidateCmd creates the validate subcommand. It works offline.
func NewValidateCmd() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate documents without contacting the server",
		Long: `Check documents for YAML syntax, unknown fields, field constraints, duplicate
spaces or pages, missing body files and parent cycles.`,
		Example: `  # Validate a document
  confluence infra validate fixtures.yaml

  # Validate with strict environment variable checking
  confluence infra validate -f "fixtures/*.yaml" --strict-env`,
		Annotations: map[string]string{cli.SkipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.Files) == 0 && len(args) > 0 {
				opts.Files = args
			}
			docs, err := loadDocuments(cmd, opts.Files, opts.StrictEnv)
			if err != nil {
				return err
			}

			pages := 0
			spaces := 0
			for _, doc := range docs {
				spaces += len(doc.Spaces)
				pages += len(doc.Pages)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d document(s) valid: %d space(s), %d page(s)\n", len(docs), spaces, pages)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Files, "file", "f", []string{}, "Documents to validate (supports glob patterns and stdin with '-')")
	cmd.Flags().BoolVar(&opts.StrictEnv, "strict-env", false, "Fail on undefined environment variables")

	return cmd
}
