package config

import (
	"errors"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/ui"
)

// ErrPasswordNotFound is returned when ResolvePassword fails to find a password in any source.
var ErrPasswordNotFound = errors.New("confluence password not found in flags/env/yaml, platform credential store or terminal prompt")

// ErrURLNotSet is returned when a client is requested without a server URL.
var ErrURLNotSet = errors.New("confluence URL not set (use --url, CONFLUENCE_URL or the url key in the config file)")

const credentialAccount = "confluence-cli"

// Swapped out in tests.
var (
	promptPassword = func(prompt string) (string, error) {
		if !ui.IsInteractive() {
			return "", nil
		}
		return ui.ReadPassword(prompt)
	}
	lookupPlatformCredential = getCredentialFromPlatformStore
)

// ResolvePassword returns a non-empty password following the resolution chain.
// Resolution order (first found wins):
//  1. Flag/YAML value stored in Config.Password (populated by Load())
//  2. Environment variable CONFLUENCE_PASSWORD
//  3. Environment variable PASSWORD (integration test environment)
//  4. Platform-specific credential storage keyed by the server host:
//     - macOS: Keychain (security command)
//     - Linux: secret-service (secret-tool)
//  5. Interactive prompt when stdin is a terminal
//  6. If nothing found, returns ErrPasswordNotFound
func (c *Config) ResolvePassword() (string, error) {
	if c != nil && c.Password != "" {
		return c.Password, nil
	}

	for _, name := range []string{"CONFLUENCE_PASSWORD", "PASSWORD"} {
		if env := os.Getenv(name); env != "" {
			return env, nil
		}
	}

	if c != nil {
		if pw := lookupPlatformCredential(credentialService(c.URL)); pw != "" {
			return pw, nil
		}
	}

	user := DefaultUsername
	if c != nil && c.Username != "" {
		user = c.Username
	}
	pw, err := promptPassword("Confluence password for " + user + ": ")
	if err != nil {
		return "", err
	}
	if pw != "" {
		return pw, nil
	}

	return "", ErrPasswordNotFound
}

// CreateClient builds a Confluence client from the resolved configuration. logger may be nil.
func (c *Config) CreateClient(logger *zap.Logger) (*confluenceclient.Client, error) {
	if c.URL == "" {
		return nil, ErrURLNotSet
	}

	password, err := c.ResolvePassword()
	if err != nil {
		return nil, err
	}

	return confluenceclient.NewClient(confluenceclient.Config{
		BaseURL:  c.URL,
		Username: c.Username,
		Password: password,
		Timeout:  c.Timeout,
		Insecure: c.Insecure,
		Logger:   logger,
	})
}

// credentialService names the credential store entry for a server: its host, or "default".
func credentialService(serverURL string) string {
	if u, err := url.Parse(serverURL); err == nil && u.Host != "" {
		return u.Host
	}
	return "default"
}

// getCredentialFromPlatformStore retrieves credentials from platform-specific secure storage
func getCredentialFromPlatformStore(service string) string {
	switch runtime.GOOS {
	case "darwin":
		// security find-generic-password -a confluence-cli -s <service> -w
		return runCredentialCommand("security", "find-generic-password", "-a", credentialAccount, "-s", service, "-w")
	case "linux":
		// secret-tool lookup application confluence-cli service <service>
		return runCredentialCommand("secret-tool", "lookup", "application", credentialAccount, "service", service)
	default:
		return ""
	}
}

func runCredentialCommand(name string, args ...string) string {
	if _, err := exec.LookPath(name); err != nil {
		return ""
	}
	out, err := exec.Command(name, args...).Output() //nolint:gosec // fixed binaries, args are not shell-interpreted
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
