// Package stream talks to a Sourcegraph-compatible search backend: the
// streaming search endpoint and the raw file-contents endpoint.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound reports that the requested file does not exist at the given
// repository revision.
var ErrNotFound = errors.New("stream: not found")

const defaultRequestTimeout = 30 * time.Second

// Client is an HTTP client for one backend instance.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken sends the given token on every request.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("stream: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("stream: base URL %q must be http(s)", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		// No timeout on the streaming client itself: streams stay open as
		// long as the backend keeps sending. Cancellation comes from the
		// request context.
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the instance base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "token "+c.accessToken)
	}
	return req, nil
}

// FileContents fetches the raw contents of a file at a repository revision.
// Revision may be empty for the default branch. Returns ErrNotFound when
// the file or revision does not exist.
type FileContents struct {
	Path     string
	Content  []byte
	ByteSize int
	Binary   bool
}

// FetchFileContents implements the file fetch capability against the
// backend's raw endpoint.
func (c *Client) FetchFileContents(ctx context.Context, repo, revision, path string) (*FileContents, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	spec := repo
	if revision != "" {
		spec += "@" + revision
	}
	rawURL := c.baseURL + "/" + spec + "/-/raw/" + strings.TrimPrefix(path, "/")

	req, err := c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, fmt.Errorf("stream: build raw request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream: fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("stream: fetch %s: unexpected status %s", path, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stream: read %s: %w", path, err)
	}

	c.logger.Debug("fetched file contents",
		zap.String("repo", repo),
		zap.String("path", path),
		zap.Int("bytes", len(body)))

	return &FileContents{
		Path:     path,
		Content:  body,
		ByteSize: len(body),
		Binary:   isBinary(body),
	}, nil
}

// isBinary sniffs for a NUL byte in the first 512 bytes, the same heuristic
// git uses.
func isBinary(data []byte) bool {
	n := len(data)
	if n > 512 {
		n = 512
	}
	for _, b := range data[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
