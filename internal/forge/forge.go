// SPDX-License-Identifier: MPL-2.0

package forge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"crmngr-cli/pkg/puppetfile"
)

const (
	// DefaultBaseURL is the public Puppet Forge API.
	DefaultBaseURL = "https://forgeapi.puppetlabs.com"

	// UpdatedAtLayout is the timestamp layout of release dates in API responses.
	UpdatedAtLayout = "2006-01-02 15:04:05 -0700"

	// maxJSONResponseBytes is the upper bound on module API response size (10 MB).
	maxJSONResponseBytes = 10 << 20
)

var (
	// ErrForge is wrapped by every error returned from the Forge client.
	ErrForge = errors.New("forge api error")
	// ErrModuleNotFound is returned when the Forge does not know the module.
	ErrModuleNotFound = errors.New("module not found on forge")
)

type (
	// Client queries the Puppet Forge v3 module API.
	Client struct {
		httpClient *http.Client
		baseURL    string
		userAgent  string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// moduleResponse is the JSON wire format of GET /v3/modules/<author>-<name>.
	moduleResponse struct {
		CurrentRelease *releaseResponse  `json:"current_release"`
		Releases       []releaseResponse `json:"releases"`
	}

	releaseResponse struct {
		Version   string `json:"version"`
		UpdatedAt string `json:"updated_at"`
	}
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(f *Client) {
		f.httpClient = c
	}
}

// WithBaseURL overrides the Forge API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(f *Client) {
		f.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(f *Client) {
		f.userAgent = ua
	}
}

// NewClient creates a Client for DefaultBaseURL.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  "crmngr/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentVersion returns the current release of namespace/name with its release date.
func (c *Client) CurrentVersion(ctx context.Context, namespace, name string) (puppetfile.Version, error) {
	mod, err := c.fetchModule(ctx, namespace, name)
	if err != nil {
		return puppetfile.Version{}, err
	}
	if mod.CurrentRelease == nil || mod.CurrentRelease.Version == "" {
		return puppetfile.Version{}, fmt.Errorf("%w: %s/%s has no current release", ErrForge, namespace, name)
	}

	updated, err := time.Parse(UpdatedAtLayout, mod.CurrentRelease.UpdatedAt)
	if err != nil {
		return puppetfile.Version{}, fmt.Errorf("%w: parsing release date of %s/%s: %w", ErrForge, namespace, name, err)
	}
	return puppetfile.Registry(mod.CurrentRelease.Version).WithDate(updated), nil
}

// HasVersion reports whether namespace/name has a release called version.
func (c *Client) HasVersion(ctx context.Context, namespace, name, version string) (bool, error) {
	mod, err := c.fetchModule(ctx, namespace, name)
	if err != nil {
		return false, err
	}
	for _, r := range mod.Releases {
		if r.Version == version {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) fetchModule(ctx context.Context, namespace, name string) (*moduleResponse, error) {
	slug := url.PathEscape(namespace + "-" + name)
	reqURL := fmt.Sprintf("%s/v3/modules/%s", c.baseURL, slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrForge, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: requesting %s: %w", ErrForge, slug, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %w: %s/%s", ErrForge, ErrModuleNotFound, namespace, name)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: requesting %s: unexpected status %d", ErrForge, slug, resp.StatusCode)
	}

	var mod moduleResponse
	if err := jsoniter.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&mod); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrForge, slug, err)
	}
	return &mod, nil
}
