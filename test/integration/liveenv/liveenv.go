//go:build integration
// +build integration

// Package liveenv wires the integration suites to a running Confluence server configured
// through CONFLUENCE_URL, USER_NAME and PASSWORD (optionally from a .env file).
package liveenv

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/subosito/gotenv"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/config"
	"github.com/teabranch/confluence-cli/internal/logging"
)

// Timeout bounds each scenario.
const Timeout = 2 * time.Minute

// ErrNotConfigured means the environment names no server or password.
var ErrNotConfigured = errors.New("CONFLUENCE_URL and PASSWORD must be set for integration tests")

var envFiles = []string{"../../../.env", "../../.env", "../.env", ".env"}

// LoadEnv reads the first .env file found between the package directory and the repository
// root. Variables already set in the environment win.
func LoadEnv() {
	for _, path := range envFiles {
		if err := gotenv.Load(path); err == nil {
			return
		}
	}
}

// Configured reports whether a server URL and a password are available.
func Configured() bool {
	LoadEnv()
	if os.Getenv("CONFLUENCE_URL") == "" {
		return false
	}
	return os.Getenv("PASSWORD") != "" || os.Getenv("CONFLUENCE_PASSWORD") != ""
}

// NewClient builds a client from the environment using the CLI's configuration chain.
func NewClient() (*confluenceclient.Client, error) {
	if !Configured() {
		return nil, ErrNotConfigured
	}

	logConfig := logging.DefaultConfig()
	logConfig.Verbose = os.Getenv("CONFLUENCE_TEST_VERBOSE") != ""
	logger := logging.New(logConfig)
	logging.SetDefault(logger)

	cfg, err := config.Load(nil, "")
	if err != nil {
		return nil, err
	}
	return cfg.CreateClient(logger.Zap())
}

// Client returns a live client, skipping t in short mode or when the server is not configured.
func Client(t *testing.T) *confluenceclient.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client, err := NewClient()
	if errors.Is(err, ErrNotConfigured) {
		t.Skip("CONFLUENCE_URL or PASSWORD not set, skipping integration test")
	}
	if err != nil {
		t.Fatalf("failed to create Confluence client: %v", err)
	}
	return client
}
