package infra

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teabranch/confluence-cli/internal/apply"
	"github.com/teabranch/confluence-cli/internal/cli"
)

// PlanOptions contains the options for the plan command
type PlanOptions struct {
	Files     []string
	StrictEnv bool
}

// NewPlanCmd creates the plan subcommand
func NewPlanCmd() *cobra.Command {
	opts := &PlanOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the changes a document would make",
		Long: `Compare documents with the server and list what apply would create, update or leave alone.

The server is only read.`,
		Example: `  # Plan a single document
  confluence infra plan -f fixtures.yaml

  # Plan as JSON
  confluence infra plan fixtures.yaml -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.Files) == 0 && len(args) > 0 {
				opts.Files = args
			}
			return runPlan(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Files, "file", "f", []string{}, "Documents to plan (supports glob patterns and stdin with '-')")
	cmd.Flags().BoolVar(&opts.StrictEnv, "strict-env", false, "Fail on undefined environment variables")

	return cmd
}

func runPlan(cmd *cobra.Command, opts *PlanOptions) error {
	docs, err := loadDocuments(cmd, opts.Files, opts.StrictEnv)
	if err != nil {
		return err
	}

	session, err := cli.NewSession(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := session.Context(cmd)
	defer cancel()

	executor := apply.NewExecutor(session.Client, session.Logger)
	plans := make([]*apply.Result, 0, len(docs))
	for _, doc := range docs {
		plan, err := executor.Plan(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to plan %s: %w", documentName(doc), err)
		}
		plans = append(plans, plan)
	}

	return displayResults(session.Formatter(cmd), plans)
}
