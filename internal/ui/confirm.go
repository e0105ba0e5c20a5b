// Package ui holds terminal interaction helpers: confirmations, password prompts and spinners.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultSkipFlag is the flag named when a non-interactive run is refused.
const DefaultSkipFlag = "--yes"

// ConfirmationPrompt handles interactive confirmation prompts
type ConfirmationPrompt struct {
	input  io.Reader
	output io.Writer
	// skipPrompts indicates if all prompts should be skipped (--yes flag)
	skipPrompts bool
	// nonInteractive indicates if we're in non-interactive mode
	nonInteractive bool
	skipFlag       string
}

// NewConfirmationPrompt creates a prompt on stdin/stdout. Interactivity is detected from stdin.
func NewConfirmationPrompt(skipPrompts bool) *ConfirmationPrompt {
	return &ConfirmationPrompt{
		input:          os.Stdin,
		output:         os.Stdout,
		skipPrompts:    skipPrompts,
		nonInteractive: !IsInteractive(),
		skipFlag:       DefaultSkipFlag,
	}
}

// NewConfirmationPromptWithIO creates a confirmation prompt with custom I/O (useful for testing)
func NewConfirmationPromptWithIO(input io.Reader, output io.Writer, skipPrompts, nonInteractive bool) *ConfirmationPrompt {
	return &ConfirmationPrompt{
		input:          input,
		output:         output,
		skipPrompts:    skipPrompts,
		nonInteractive: nonInteractive,
		skipFlag:       DefaultSkipFlag,
	}
}

// WithSkipFlag sets the flag suggested when confirmation is impossible, for commands that
// call it something other than --yes.
func (c *ConfirmationPrompt) WithSkipFlag(flag string) *ConfirmationPrompt {
	c.skipFlag = flag
	return c
}

// Confirm prompts the user for confirmation and returns true if they confirm
func (c *ConfirmationPrompt) Confirm(message string) (bool, error) {
	if c.skipPrompts {
		return true, nil
	}

	// Without --yes a non-interactive run is denied.
	if c.nonInteractive {
		return false, fmt.Errorf("operation requires confirmation but running in non-interactive mode (use %s to confirm)", c.skipFlag)
	}

	_, _ = fmt.Fprintf(c.output, "%s [y/N]: ", message)

	scanner := bufio.NewScanner(c.input)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, fmt.Errorf("failed to read user input: %w", err)
		}
		// EOF counts as "no"
		return false, nil
	}

	switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ConfirmDeletion provides a specialized confirmation for deletion operations
func (c *ConfirmationPrompt) ConfirmDeletion(resourceType, resourceName string) (bool, error) {
	message := fmt.Sprintf("Are you sure you want to delete %s '%s'? This action cannot be undone.",
		resourceType, resourceName)
	return c.Confirm(message)
}

// ConfirmChanges lists changes under a heading, then asks whether to proceed. Nothing is
// printed when prompts are skipped.
func (c *ConfirmationPrompt) ConfirmChanges(heading string, changes []string) (bool, error) {
	if !c.skipPrompts && !c.nonInteractive {
		_, _ = fmt.Fprintf(c.output, "%s\n", heading)
		for _, change := range changes {
			_, _ = fmt.Fprintf(c.output, "  - %s\n", change)
		}
		_, _ = fmt.Fprintln(c.output)
	}
	return c.Confirm("Do you want to proceed?")
}
