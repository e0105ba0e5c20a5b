package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teabranch/confluence-cli/internal/config"
	"github.com/teabranch/confluence-cli/internal/validation"
)

// PaginationFlags holds standard pagination flag values
type PaginationFlags struct {
	Start int
	Limit int
	All   bool
}

// AddPaginationFlags adds --start, --limit and --all to a command. A zero --limit means the
// configured page size.
func AddPaginationFlags(cmd *cobra.Command, flags *PaginationFlags) {
	cmd.Flags().IntVar(&flags.Start, "start", 0, "Offset of the first item (0-based)")
	cmd.Flags().IntVar(&flags.Limit, "limit", 0, fmt.Sprintf("Number of items per page (1-%d, default: configured pageSize)", config.MaxPageSize))
	cmd.Flags().BoolVar(&flags.All, "all", false, "Retrieve all items, following every page")
	cmd.MarkFlagsMutuallyExclusive("all", "start")
}

// Resolve validates the flags and fills a zero limit from pageSize.
func (p *PaginationFlags) Resolve(pageSize int) error {
	if p.Start < 0 {
		return fmt.Errorf("start must be >= 0, got %d", p.Start)
	}
	if p.Limit == 0 {
		p.Limit = pageSize
	}
	return validation.ValidateRange(p.Limit, "limit", 1, config.MaxPageSize)
}

// Summary describes the window of a single page, e.g. "Showing 26-50 (more available, use --start 50)".
func Summary(start, count int, hasNext bool) string {
	if count == 0 {
		return "No items found"
	}
	msg := fmt.Sprintf("Showing %d-%d", start+1, start+count)
	if hasNext {
		msg += fmt.Sprintf(" (more available, use --start %d or --all)", start+count)
	}
	return msg
}
