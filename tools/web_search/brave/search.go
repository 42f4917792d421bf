package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mpfeed/internal/resilience/retry"
	"mpfeed/tools/web_search/models"
)

const searchURL = "https://api.search.brave.com/res/v1/web/search"

// Search queries the Brave web search API. Date filtering uses the freshness
// parameter with an explicit date range, since Brave has no trailing-months
// shorthand beyond one month.
type Search struct {
	apiKey  string
	baseURL string
	client  *http.Client
	now     func() time.Time
}

func New(apiKey string, timeout time.Duration) *Search {
	return &Search{
		apiKey:  apiKey,
		baseURL: searchURL,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server.
func NewWithBaseURL(apiKey, baseURL string, timeout time.Duration) *Search {
	s := New(apiKey, timeout)
	s.baseURL = baseURL
	return s
}

func (s *Search) Discover(ctx context.Context, q string, k int, monthsBack int) ([]models.Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	params := url.Values{}
	params.Set("q", q)
	params.Set("count", fmt.Sprintf("%d", k))
	if monthsBack > 0 {
		today := s.now()
		start := today.AddDate(0, -monthsBack, 0)
		params.Set("freshness", fmt.Sprintf("%sto%s", start.Format("2006-01-02"), today.Format("2006-01-02")))
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
				Age     string `json:"age"`
			} `json:"results"`
		} `json:"web"`
	}

	err := retry.WithBackoff(ctx, retry.SearchConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(msg)}
		}
		return json.NewDecoder(resp.Body).Decode(&raw)
	})
	if err != nil {
		return nil, fmt.Errorf("brave search failed: %w", err)
	}

	var out []models.Result
	for i, r := range raw.Web.Results {
		if i >= k {
			break
		}
		out = append(out, models.Result{
			Title:    r.Title,
			URL:      r.URL,
			Snippet:  r.Snippet,
			Date:     r.Age,
			Position: i + 1,
		})
	}
	return out, nil
}
