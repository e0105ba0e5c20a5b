// Package confluence provides a thin wrapper over the Confluence REST API (spaces and content).
package confluence

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultUsername matches the Confluence bootstrap administrator.
	DefaultUsername = "admin"
	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second
	// DefaultPageSize is the page size Confluence uses when none is requested.
	DefaultPageSize = 25

	apiPrefix        = "rest/api"
	defaultUserAgent = "confluence-cli"
	requestIDHeader  = "X-Request-Id"
)

// Config defines optional settings for initializing the client wrapper.
// Zero values are replaced by sensible defaults or environment variables.
type Config struct {
	BaseURL    string        // Confluence base URL, e.g. https://wiki.example.com; fallback: CONFLUENCE_URL
	Username   string        // fallback: USER_NAME env var, then "admin"
	Password   string        // fallback: PASSWORD env var
	Timeout    time.Duration // per-request timeout (default 30s); ignored when HTTPClient is set
	Insecure   bool          // skip TLS verification (self-signed test servers)
	HTTPClient *http.Client  // optional pre-built client (tests, proxies)
	Logger     *zap.Logger   // request tracing (default no-op)
	UserAgent  string
}

// Client issues authenticated JSON requests against <BaseURL>/rest/api.
// It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	username  string
	password  string
	http      *http.Client
	logger    *zap.Logger
	userAgent string
}

// NewClient constructs a Client. Credentials are resolved from the Config first and fall back
// to environment variables.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("CONFLUENCE_URL")
	}
	if cfg.Username == "" {
		cfg.Username = os.Getenv("USER_NAME")
	}
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}
	if cfg.Password == "" {
		cfg.Password = os.Getenv("PASSWORD")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be an absolute http(s) URL", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.Insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for test servers
		}
		httpClient = &http.Client{Timeout: cfg.Timeout, Transport: transport}
	}

	return &Client{
		baseURL:   base,
		username:  cfg.Username,
		password:  cfg.Password,
		http:      httpClient,
		logger:    cfg.Logger.With(zap.String("component", "confluence.Client")),
		userAgent: cfg.UserAgent,
	}, nil
}

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Username returns the account requests are authenticated as.
func (c *Client) Username() string { return c.username }

// endpoint resolves a path relative to the REST API root.
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL.JoinPath(apiPrefix, path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// escapeSegment escapes s as a single path segment. Dot segments are percent-encoded too so
// that joining cannot resolve them against the API root.
func escapeSegment(s string) string {
	if s == "." || s == ".." {
		return strings.ReplaceAll(s, ".", "%2E")
	}
	return url.PathEscape(s)
}

// Do sends one request. in (if non-nil) is JSON-encoded as the body; a 2xx response body is
// decoded into out (if non-nil). Non-2xx responses are returned as *Error.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Atlassian-Token", "no-check")
	req.Header.Set(requestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.username, c.password)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)),
		zap.String("request_id", requestID))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, method, path, requestID, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// Ping issues an unauthenticated GET against the base URL and returns the status code.
// Only transport failures are returned as errors.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("build ping request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ping %s: %w", c.baseURL.Redacted(), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	c.logger.Debug("ping", zap.Int("status", resp.StatusCode))
	return resp.StatusCode, nil
}

func expandValues(expand []string) url.Values {
	q := url.Values{}
	if len(expand) > 0 {
		q.Set("expand", strings.Join(expand, ","))
	}
	return q
}

func setPaging(q url.Values, start, limit int) {
	if start > 0 {
		q.Set("start", strconv.Itoa(start))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
}
