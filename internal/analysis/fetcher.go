package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"

	"mpfeed/internal/resilience/retry"
)

const (
	fetchMaxBodySize = 2 << 20 // 2 MiB
	fetchUserAgent   = "MPNewsFeedBot/1.0"
)

// Fetcher retrieves article pages and extracts readable text to ground the
// context stage. All failures are reported to the caller, which treats them
// as non-fatal.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates an article page fetcher.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// FetchText fetches the page at rawURL and returns its readable text content.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("invalid article URL %q", rawURL)
	}

	var htmlBytes []byte
	err = retry.WithBackoff(ctx, retry.FetchConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", fetchUserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
		}

		htmlBytes, err = io.ReadAll(io.LimitReader(resp.Body, fetchMaxBodySize))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), parsed)
	if err != nil {
		return "", fmt.Errorf("extracting content from %s: %w", rawURL, err)
	}
	if article.TextContent == "" {
		return "", fmt.Errorf("no readable content at %s", rawURL)
	}
	return article.TextContent, nil
}
