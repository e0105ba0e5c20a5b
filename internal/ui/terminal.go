package ui

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether stdin is attached to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ReadPassword prints prompt to stderr and reads a line from the terminal without echo.
func ReadPassword(prompt string) (string, error) {
	if !IsInteractive() {
		return "", fmt.Errorf("cannot prompt for password: stdin is not a terminal")
	}
	_, _ = fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
