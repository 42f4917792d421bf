package web_search

import (
	"context"
	"fmt"
	"time"

	"mpfeed/tools/web_search/brave"
	"mpfeed/tools/web_search/models"
	"mpfeed/tools/web_search/serper"
)

// WebSearcher finds recent news articles. monthsBack restricts results to a
// trailing window; implementations map it onto their provider's date filter.
type WebSearcher interface {
	Discover(ctx context.Context, q string, k int, monthsBack int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

// NewWebSearcher returns a searcher for the named provider. A missing API key
// is reported with the environment variable that should carry it.
func NewWebSearcher(provider Provider, apiKey string, timeout time.Duration) (WebSearcher, error) {
	switch provider {
	case SerperProvider:
		if apiKey == "" {
			return nil, fmt.Errorf("SERPER_API_KEY environment variable not set")
		}
		return serper.New(apiKey, timeout), nil
	case BraveProvider:
		if apiKey == "" {
			return nil, fmt.Errorf("BRAVE_API_KEY environment variable not set")
		}
		return brave.New(apiKey, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported web search provider %q", provider)
	}
}
