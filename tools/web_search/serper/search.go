package serper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mpfeed/internal/resilience/retry"
	"mpfeed/tools/web_search/models"
)

const searchURL = "https://google.serper.dev/search"

// Search queries the Serper API with date filtering. The tbs parameter
// restricts Google results to a trailing window (qdr:m8 = past 8 months).
type Search struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func New(apiKey string, timeout time.Duration) *Search {
	return &Search{
		apiKey:  apiKey,
		baseURL: searchURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server.
func NewWithBaseURL(apiKey, baseURL string, timeout time.Duration) *Search {
	s := New(apiKey, timeout)
	s.baseURL = baseURL
	return s
}

func (s *Search) Discover(ctx context.Context, q string, k int, monthsBack int) ([]models.Result, error) {
	// https://serper.dev/ docs
	payload := map[string]any{"q": q, "num": k}
	if monthsBack > 0 {
		payload["tbs"] = fmt.Sprintf("qdr:m%d", monthsBack)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Organic []struct {
			Title    string `json:"title"`
			Link     string `json:"link"`
			Snippet  string `json:"snippet"`
			Date     string `json:"date"`
			Position int    `json:"position"`
		} `json:"organic"`
	}

	err = retry.WithBackoff(ctx, retry.SearchConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, strings.NewReader(string(body)))
		if err != nil {
			return err
		}
		req.Header.Set("X-API-KEY", s.apiKey)
		req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("serper search failed: %w", err)
	}

	var out []models.Result
	for i, item := range raw.Organic {
		if i >= k {
			break
		}
		out = append(out, models.Result{
			Title:    item.Title,
			URL:      item.Link,
			Snippet:  item.Snippet,
			Date:     item.Date,
			Position: item.Position,
		})
	}
	return out, nil
}
