package search

import (
	"context"
	"fmt"
	"log"
	"strings"

	"mpfeed/config"
	"mpfeed/models"
	"mpfeed/provider"
	"mpfeed/tools/web_search"
	searchmodels "mpfeed/tools/web_search/models"
)

const maxQueriesPerMP = 3

// Agent handles searching for a single MP. Each call is fully independent:
// the agent generates search queries, runs them through the web search
// provider with date filtering, and distills the raw hits into a structured
// article list.
type Agent struct {
	cfg      *config.Config
	agents   *config.AgentsFile
	llm      provider.Provider
	searcher web_search.WebSearcher
	logger   *log.Logger
	onLLM    func(model config.LLMModel, promptTokens, completionTokens int64)
}

// NewAgent creates a single-MP search agent.
func NewAgent(cfg *config.Config, agents *config.AgentsFile, llm provider.Provider, searcher web_search.WebSearcher, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.New(log.Writer(), "[SEARCH] ", log.LstdFlags)
	}
	return &Agent{cfg: cfg, agents: agents, llm: llm, searcher: searcher, logger: logger}
}

// SetLLMObserver registers a callback invoked after every completion.
func (a *Agent) SetLLMObserver(fn func(model config.LLMModel, promptTokens, completionTokens int64)) {
	a.onLLM = fn
}

// SearchMP runs the full search unit for one MP.
func (a *Agent) SearchMP(ctx context.Context, mp models.MP, timeframe, today string, wait func(context.Context) error) (models.MPSearchResult, error) {
	queries := a.generateQueries(ctx, mp, timeframe, today)

	var hits []searchmodels.Result
	seen := make(map[string]bool)
	for _, q := range queries {
		if wait != nil {
			if err := wait(ctx); err != nil {
				return models.MPSearchResult{}, err
			}
		}
		results, err := a.searcher.Discover(ctx, q, a.cfg.Search.MaxResults, a.cfg.Search.MonthsBack)
		if err != nil {
			a.logger.Printf("warn: query %q for %s failed: %v", q, mp.Name, err)
			continue
		}
		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			hits = append(hits, r)
		}
	}
	if len(hits) == 0 {
		return models.MPSearchResult{MPName: mp.Name, Country: mp.Country}, nil
	}

	system, user, err := a.agents.Prompt(config.TaskSearchSingleMP, map[string]string{
		"mp_name":        mp.Name,
		"mp_country":     mp.Country,
		"timeframe":      timeframe,
		"today":          today,
		"search_results": formatResults(hits),
	})
	if err != nil {
		return models.MPSearchResult{}, err
	}

	resp, usage, err := a.llm.Complete(ctx, a.cfg.LLM.SearchModel, system, user)
	if err != nil {
		return models.MPSearchResult{}, fmt.Errorf("distilling results for %s: %w", mp.Name, err)
	}
	if a.onLLM != nil {
		a.onLLM(a.cfg.LLM.SearchModel, usage.PromptTokens, usage.CompletionTokens)
	}

	var result models.MPSearchResult
	if err := provider.DecodeInto(resp, &result); err != nil {
		return models.MPSearchResult{}, fmt.Errorf("parsing search output for %s (raw: %s): %w", mp.Name, truncate(resp, 200), err)
	}
	if result.MPName == "" {
		result.MPName = mp.Name
	}
	if result.Country == "" {
		result.Country = mp.Country
	}
	return result, nil
}

// generateQueries asks the search model for query angles; on any failure it
// falls back to deterministic queries so the MP is still covered.
func (a *Agent) generateQueries(ctx context.Context, mp models.MP, timeframe, today string) []string {
	fallback := []string{
		fmt.Sprintf("%s %s MP news", mp.Name, mp.Country),
		fmt.Sprintf("\"%s\" parliament", mp.Name),
	}

	agent := a.agents.Agents[config.AgentSearchOrchestrator]
	system := "You are " + agent.Role + ".\n" + agent.Backstory
	user := fmt.Sprintf(`Generate up to %d distinct web search queries to find news from the past %s about the MP %s from %s. Today is %s. Cover different angles (legislation, public statements, controversies).

Respond with JSON only: {"queries": ["...", "..."]}`,
		maxQueriesPerMP, timeframe, mp.Name, mp.Country, today)

	resp, usage, err := a.llm.Complete(ctx, a.cfg.LLM.SearchModel, system, user)
	if err != nil {
		a.logger.Printf("warn: query generation for %s failed, using defaults: %v", mp.Name, err)
		return fallback
	}
	if a.onLLM != nil {
		a.onLLM(a.cfg.LLM.SearchModel, usage.PromptTokens, usage.CompletionTokens)
	}

	var out struct {
		Queries []string `json:"queries"`
	}
	if err := provider.DecodeInto(resp, &out); err != nil || len(out.Queries) == 0 {
		a.logger.Printf("warn: query generation for %s returned no usable queries, using defaults", mp.Name)
		return fallback
	}
	if len(out.Queries) > maxQueriesPerMP {
		out.Queries = out.Queries[:maxQueriesPerMP]
	}
	return out.Queries
}

// formatResults renders raw hits as a numbered block for the distill prompt.
func formatResults(hits []searchmodels.Result) string {
	var sb strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&sb, "%d. %s\n   url: %s\n   date: %s\n   snippet: %s\n", i+1, h.Title, h.URL, orUnknown(h.Date), h.Snippet)
	}
	return sb.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
