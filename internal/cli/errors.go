// Package cli holds helpers shared by the cobra commands: error presentation, pagination
// flags and signal handling.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/config"
	"github.com/teabranch/confluence-cli/internal/validation"
)

// ErrorFormatter provides user-friendly error formatting
type ErrorFormatter struct {
	verbose bool
}

// NewErrorFormatter creates a new error formatter
func NewErrorFormatter(verbose bool) *ErrorFormatter {
	return &ErrorFormatter{verbose: verbose}
}

// Format converts an error to a user-friendly message
func (e *ErrorFormatter) Format(err error) string {
	if err == nil {
		return ""
	}

	msg := e.message(err)
	if e.verbose {
		if apiErr, ok := confluenceclient.AsError(err); ok && apiErr.RequestID != "" {
			msg += fmt.Sprintf("\nDebug: %s (request id %s)", err.Error(), apiErr.RequestID)
		} else if msg != err.Error() {
			msg += "\nDebug: " + err.Error()
		}
	}
	return msg
}

func (e *ErrorFormatter) message(err error) string {
	switch {
	case errors.Is(err, config.ErrURLNotSet):
		return "No Confluence server configured.\n" +
			"Hint: pass --url, set CONFLUENCE_URL, or run 'confluence config init'."

	case errors.Is(err, config.ErrPasswordNotFound):
		return "No password available.\n" +
			"Hint: set PASSWORD or CONFLUENCE_PASSWORD, or run the command in a terminal to be prompted."

	case confluenceclient.IsValueTooLong(err):
		return fmt.Sprintf("Value too long: %s\n"+
			"Hint: page titles are limited to %d characters and space names to %d.",
			detail(err), validation.MaxTitleLength, validation.MaxSpaceNameLength)

	case confluenceclient.IsUnauthorized(err):
		return "Authentication failed or permission denied.\n" +
			"Hint: check --username / USER_NAME and the password, and that the account may use this space."

	case confluenceclient.IsNotFound(err):
		return fmt.Sprintf("Not found: %s\nHint: check the space key or content ID.", detail(err))

	case confluenceclient.IsConflict(err):
		return fmt.Sprintf("Conflict: %s\n"+
			"Hint: an update must carry the current version plus one; omit --version to use it automatically.", detail(err))

	case confluenceclient.IsBadRequest(err):
		return fmt.Sprintf("Request rejected: %s", detail(err))

	case errors.Is(err, context.DeadlineExceeded):
		return "Operation timed out.\nHint: increase --timeout (e.g. --timeout 2m)."

	case errors.Is(err, context.Canceled):
		return "Operation cancelled."
	}

	if apiErr, ok := confluenceclient.AsError(err); ok {
		return e.formatHTTPError(apiErr)
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return fmt.Sprintf("Invalid input: %s", verrs.Error())
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return fmt.Sprintf("Cannot reach the Confluence server: %s\n"+
			"Hint: check the URL, your network connection, and --insecure for self-signed certificates.", rootCause(err))
	}

	return err.Error()
}

// formatHTTPError covers statuses without a sentinel.
func (e *ErrorFormatter) formatHTTPError(apiErr *confluenceclient.Error) string {
	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return "Rate limit exceeded. Please wait before making more requests."
	case apiErr.StatusCode >= 500:
		return fmt.Sprintf("Confluence server error (status %d): %s\nHint: try again later or check the server logs.",
			apiErr.StatusCode, detail(apiErr))
	default:
		return fmt.Sprintf("Request failed with status %d: %s", apiErr.StatusCode, detail(apiErr))
	}
}

// detail returns the server message for API errors and the full text otherwise.
func detail(err error) string {
	if apiErr, ok := confluenceclient.AsError(err); ok {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return http.StatusText(apiErr.StatusCode)
	}
	return err.Error()
}

func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return strings.TrimSpace(err.Error())
		}
		err = next
	}
}

// WrapWithSuggestion wraps an error with a helpful suggestion
func WrapWithSuggestion(err error, suggestion string) error {
	return fmt.Errorf("%w\nHint: %s", err, suggestion)
}
