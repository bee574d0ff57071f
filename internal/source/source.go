// Package source loads manifest text from a local file or an HTTP(S) URL.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP fetch.
const DefaultTimeout = 30 * time.Second

// maxManifestSize caps how much of a response body is read.
const maxManifestSize = 16 << 20

// Loader fetches manifests.
type Loader struct {
	Client *http.Client
}

// NewLoader creates a Loader with an HTTP client using the given timeout.
func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Loader{
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// IsRemote reports whether uri names an http:// or https:// resource.
func IsRemote(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// Load returns the complete manifest text named by uri, which is either an
// http(s) URL or a local path.
func (l *Loader) Load(ctx context.Context, uri string) (string, error) {
	if IsRemote(uri) {
		return l.fetch(ctx, uri)
	}

	data, err := os.ReadFile(uri)
	if err != nil {
		return "", fmt.Errorf("failed to read playlist: %w", err)
	}
	return string(data), nil
}

func (l *Loader) fetch(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch playlist: %w", err)
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch playlist: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read playlist body: %w", err)
	}
	if len(data) > maxManifestSize {
		return "", fmt.Errorf("playlist larger than %d bytes", maxManifestSize)
	}

	return string(data), nil
}

// ResolveURL resolves a possibly relative URL against a base URL.
func ResolveURL(baseURL, relativeURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	rel, err := url.Parse(relativeURL)
	if err != nil {
		return "", fmt.Errorf("invalid relative URL: %w", err)
	}

	// Resolve the relative URL against the base
	resolved := base.ResolveReference(rel)
	return resolved.String(), nil
}
