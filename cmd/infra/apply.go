package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teabranch/confluence-cli/internal/apply"
	"github.com/teabranch/confluence-cli/internal/cli"
	"github.com/teabranch/confluence-cli/internal/output"
	"github.com/teabranch/confluence-cli/internal/security"
	"github.com/teabranch/confluence-cli/internal/ui"
)

// ApplyOptions contains the options for the apply command
type ApplyOptions struct {
	Files       []string
	DryRun      bool
	AutoApprove bool
	StrictEnv   bool
}

// NewInfraCmd creates the infra command for declarative space and page management
func NewInfraCmd() *cobra.Command {
	opts := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "infra",
		Short: "Manage spaces and pages with declarative documents",
		Long: `Apply ApplyDocument files to a Confluence server.

Spaces and pages missing from the server are created and changed ones updated.
Nothing is ever deleted. Running the same document twice makes no further changes.`,
		SilenceUsage: true,
		Example: `  # Create or update the fixtures described in a file
  confluence infra -f fixtures.yaml

  # Preview the changes
  confluence infra -f fixtures.yaml --dry-run

  # Apply every document in a directory
  confluence infra -f "fixtures/*.yaml" --auto-approve

  # Read the document from stdin
  cat fixtures.yaml | confluence infra -f -`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.Files) == 0 && len(args) > 0 {
				opts.Files = args
			}
			return runApply(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Files, "file", "f", []string{}, "Documents to apply (supports glob patterns and stdin with '-')")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show what would be applied without making changes")
	cmd.Flags().BoolVar(&opts.AutoApprove, "auto-approve", false, "Skip the approval prompt")
	cmd.Flags().BoolVar(&opts.StrictEnv, "strict-env", false, "Fail on undefined environment variables")

	cmd.AddCommand(NewPlanCmd())
	cmd.AddCommand(NewValidateCmd())

	return cmd
}

func runApply(cmd *cobra.Command, opts *ApplyOptions) error {
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
	formatter := session.Formatter(cmd)

	// Preview first so the prompt can say what is about to change.
	plans := make([]*apply.Result, 0, len(docs))
	changes := 0
	for _, doc := range docs {
		plan, err := executor.Plan(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to plan %s: %w", documentName(doc), err)
		}
		summary := plan.Summary()
		changes += summary[apply.ActionCreate] + summary[apply.ActionUpdate]
		plans = append(plans, plan)
	}

	if opts.DryRun || changes == 0 {
		if err := displayResults(formatter, plans); err != nil {
			return err
		}
		if changes == 0 {
			session.Logger.Info("Nothing to apply")
		}
		return nil
	}

	confirmed, err := ui.NewConfirmationPrompt(opts.AutoApprove).WithSkipFlag("--auto-approve").ConfirmChanges(
		fmt.Sprintf("%d change(s) will be applied to %s:", changes, security.MaskURL(session.Config.URL)),
		describeChanges(plans))
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(cmd.OutOrStdout(), "Apply cancelled")
		return nil
	}

	results := make([]*apply.Result, 0, len(docs))
	for _, doc := range docs {
		result, err := executor.Apply(ctx, doc)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			_ = displayResults(formatter, results)
			return fmt.Errorf("failed to apply %s: %w", documentName(doc), err)
		}
	}
	return displayResults(formatter, results)
}

// loadDocuments expands file patterns and loads every document before anything is sent.
func loadDocuments(cmd *cobra.Command, patterns []string, strictEnv bool) ([]*apply.Document, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("at least one document is required (use --file)")
	}
	files, err := expandFilePatterns(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to expand file patterns: %w", err)
	}

	docs := make([]*apply.Document, 0, len(files))
	for _, file := range files {
		doc, err := apply.LoadDocument(file, apply.LoaderOptions{StrictEnv: strictEnv, Stdin: cmd.InOrStdin()})
		if err != nil {
			return nil, err
		}
		if doc.Metadata.Name == "" {
			doc.Metadata.Name = file
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func expandFilePatterns(patterns []string) ([]string, error) {
	var files []string
	stdin := false

	for _, pattern := range patterns {
		if pattern == "-" {
			if stdin {
				return nil, fmt.Errorf("stdin (-) can only be specified once")
			}
			stdin = true
			files = append(files, "-")
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern '%s': %w", pattern, err)
		}
		if len(matches) == 0 {
			if strings.ContainsAny(pattern, "*?[") {
				return nil, fmt.Errorf("no files found matching pattern: %s", pattern)
			}
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("file '%s' does not exist: %w", pattern, err)
			}
			files = append(files, pattern)
			continue
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("failed to stat file '%s': %w", match, err)
			}
			if !info.IsDir() {
				files = append(files, match)
			}
		}
	}

	return files, nil
}

func displayResults(formatter *output.Formatter, results []*apply.Result) error {
	var ops []apply.Operation
	for _, r := range results {
		ops = append(ops, r.Operations...)
	}
	return output.FormatList(formatter, ops,
		[]string{"KIND", "ACTION", "SPACE", "NAME", "ID", "REASON"},
		func(op apply.Operation) []string {
			return []string{op.Kind, string(op.Action), op.Space, output.Truncate(op.Name, 50), op.ID, op.Reason}
		})
}

func describeChanges(plans []*apply.Result) []string {
	var out []string
	for _, plan := range plans {
		for _, op := range plan.Operations {
			if op.Action == apply.ActionNoChange {
				continue
			}
			out = append(out, fmt.Sprintf("%s %s %q in %s", op.Action, strings.ToLower(op.Kind), op.Name, op.Space))
		}
	}
	return out
}

func documentName(doc *apply.Document) string {
	if doc.Metadata.Name == "" {
		return "document"
	}
	return doc.Metadata.Name
}
