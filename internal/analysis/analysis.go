// Package analysis implements phase 2: a sequential agent pipeline that
// filters and scores the aggregated search results, enriches the survivors
// with political context, and composes the strategic summary report.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"mpfeed/config"
	"mpfeed/models"
	"mpfeed/provider"
)

// minRelevanceScore is the inclusion threshold enforced after scoring.
const minRelevanceScore = 5

// maxExcerpts bounds how many article pages the context stage fetches.
const maxExcerpts = 3

// excerptLimit bounds the characters fed into the context prompt per page.
const excerptLimit = 2000

// ArticleFetcher retrieves readable article text for grounding context.
type ArticleFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Pipeline runs the three analysis stages in sequence. There is no branching:
// the output of each stage is the input of the next.
type Pipeline struct {
	cfg     *config.Config
	agents  *config.AgentsFile
	llm     provider.Provider
	fetcher ArticleFetcher
	logger  *log.Logger
	onLLM   func(model config.LLMModel, promptTokens, completionTokens int64)
}

// NewPipeline creates the phase-2 analysis pipeline. fetcher may be nil, in
// which case the context stage works from article summaries alone.
func NewPipeline(cfg *config.Config, agents *config.AgentsFile, llm provider.Provider, fetcher ArticleFetcher, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(log.Writer(), "[ANALYSIS] ", log.LstdFlags)
	}
	return &Pipeline{cfg: cfg, agents: agents, llm: llm, fetcher: fetcher, logger: logger}
}

// SetLLMObserver registers a callback invoked after every completion.
func (p *Pipeline) SetLLMObserver(fn func(model config.LLMModel, promptTokens, completionTokens int64)) {
	p.onLLM = fn
}

// Run executes filter, context, and compose in order and returns the report.
func (p *Pipeline) Run(ctx context.Context, results models.SearchResults, inputs models.RunInputs) (string, error) {
	filtered, err := p.Filter(ctx, results, inputs)
	if err != nil {
		return "", fmt.Errorf("filter stage: %w", err)
	}
	contextualized, err := p.Contextualize(ctx, filtered, inputs)
	if err != nil {
		return "", fmt.Errorf("context stage: %w", err)
	}
	report, err := p.Compose(ctx, contextualized, inputs)
	if err != nil {
		return "", fmt.Errorf("compose stage: %w", err)
	}
	return report, nil
}

// Filter scores every aggregated article for relevance and keeps only items
// at or above the inclusion threshold.
func (p *Pipeline) Filter(ctx context.Context, results models.SearchResults, inputs models.RunInputs) (models.FilteredList, error) {
	researchJSON, err := json.MarshalIndent(results.ResearchList, "", "  ")
	if err != nil {
		return models.FilteredList{}, err
	}

	system, user, err := p.agents.Prompt(config.TaskFilterContent, map[string]string{
		"article_count": strconv.Itoa(len(results.ResearchList)),
		"mp_count":      strconv.Itoa(results.MPCount),
		"timeframe":     results.Timeframe,
		"focus_areas":   inputs.FocusAreas,
		"research_list": string(researchJSON),
	})
	if err != nil {
		return models.FilteredList{}, err
	}

	resp, err := p.complete(ctx, system, user)
	if err != nil {
		return models.FilteredList{}, err
	}

	var filtered models.FilteredList
	if err := provider.DecodeInto(resp, &filtered); err != nil {
		return models.FilteredList{}, err
	}

	// The model is instructed to discard low scores; enforce the threshold
	// here as well so the report never carries sub-threshold items.
	kept := filtered.FilteredItems[:0]
	for _, item := range filtered.FilteredItems {
		if item.RelevanceScore >= minRelevanceScore {
			kept = append(kept, item)
		}
	}
	filtered.FilteredItems = kept

	p.logger.Printf("filter: %d articles in, %d kept", len(results.ResearchList), len(filtered.FilteredItems))
	return filtered, nil
}

// Contextualize enriches each filtered item with theme, background, and
// political significance, grounding the model in fetched article text where
// available.
func (p *Pipeline) Contextualize(ctx context.Context, filtered models.FilteredList, inputs models.RunInputs) (models.ContextList, error) {
	filteredJSON, err := json.MarshalIndent(filtered.FilteredItems, "", "  ")
	if err != nil {
		return models.ContextList{}, err
	}

	system, user, err := p.agents.Prompt(config.TaskResearchContext, map[string]string{
		"focus_areas":      inputs.FocusAreas,
		"filtered_items":   string(filteredJSON),
		"article_excerpts": p.collectExcerpts(ctx, filtered),
	})
	if err != nil {
		return models.ContextList{}, err
	}

	resp, err := p.complete(ctx, system, user)
	if err != nil {
		return models.ContextList{}, err
	}

	var contextualized models.ContextList
	if err := provider.DecodeInto(resp, &contextualized); err != nil {
		return models.ContextList{}, err
	}
	p.logger.Printf("context: %d items contextualized", len(contextualized.ContextualizedItems))
	return contextualized, nil
}

// Compose writes the strategic Markdown report from the contextualized items.
func (p *Pipeline) Compose(ctx context.Context, contextualized models.ContextList, inputs models.RunInputs) (string, error) {
	itemsJSON, err := json.MarshalIndent(contextualized.ContextualizedItems, "", "  ")
	if err != nil {
		return "", err
	}

	system, user, err := p.agents.Prompt(config.TaskComposeSummary, map[string]string{
		"date_range":           inputs.DateRange,
		"focus_areas":          inputs.FocusAreas,
		"contextualized_items": string(itemsJSON),
	})
	if err != nil {
		return "", err
	}

	resp, err := p.complete(ctx, system, user)
	if err != nil {
		return "", err
	}

	report := stripDocumentFence(resp)
	p.logger.Printf("compose: report of %d bytes", len(report))
	return report, nil
}

// collectExcerpts fetches readable text for the highest-scored items. Fetch
// failures are logged and skipped; the stage works without excerpts.
func (p *Pipeline) collectExcerpts(ctx context.Context, filtered models.FilteredList) string {
	if p.fetcher == nil || len(filtered.FilteredItems) == 0 {
		return "(none)"
	}

	items := topByScore(filtered.FilteredItems, maxExcerpts)
	var sb strings.Builder
	for _, item := range items {
		text, err := p.fetcher.FetchText(ctx, item.URL)
		if err != nil {
			p.logger.Printf("warn: excerpt fetch failed for %s: %v", item.URL, err)
			continue
		}
		if len(text) > excerptLimit {
			text = text[:excerptLimit]
		}
		fmt.Fprintf(&sb, "--- %s (%s)\n%s\n\n", item.Title, item.URL, text)
	}
	if sb.Len() == 0 {
		return "(none)"
	}
	return sb.String()
}

func (p *Pipeline) complete(ctx context.Context, system, user string) (string, error) {
	resp, usage, err := p.llm.Complete(ctx, p.cfg.LLM.AnalysisModel, system, user)
	if err != nil {
		return "", err
	}
	if p.onLLM != nil {
		p.onLLM(p.cfg.LLM.AnalysisModel, usage.PromptTokens, usage.CompletionTokens)
	}
	return resp, nil
}

// topByScore returns up to n items with the highest relevance scores,
// preserving input order among equals.
func topByScore(items []models.FilteredItem, n int) []models.FilteredItem {
	if len(items) <= n {
		return items
	}
	sorted := make([]models.FilteredItem, len(items))
	copy(sorted, items)
	for i := 0; i < n; i++ {
		best := i
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].RelevanceScore > sorted[best].RelevanceScore {
				best = j
			}
		}
		sorted[i], sorted[best] = sorted[best], sorted[i]
	}
	return sorted[:n]
}

// stripDocumentFence removes a code fence wrapping the entire document, which
// models sometimes add despite instructions.
func stripDocumentFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[len(lines)-1], "```") {
		return trimmed
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}
