// Package search implements phase 1: a deterministic parallel search across
// the MP list. Iteration over MPs is controlled here in Go, guaranteeing
// every MP gets searched, while the per-MP agent keeps query intelligence.
package search

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"mpfeed/models"
)

// MPSearcher is the per-entity search unit run by the service.
type MPSearcher interface {
	SearchMP(ctx context.Context, mp models.MP, timeframe, today string, wait func(context.Context) error) (models.MPSearchResult, error)
}

// Service fans searches out over the MP list with a concurrency ceiling and
// a derived requests-per-minute cap, then aggregates all articles into a
// single flat list.
type Service struct {
	agent          MPSearcher
	maxConcurrency int
	rpm            int
	logger         *log.Logger
	onSearch       func(ok bool)
}

// NewService creates the phase-1 search service.
func NewService(agent MPSearcher, maxConcurrency, rpm int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[SEARCH] ", log.LstdFlags)
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &Service{agent: agent, maxConcurrency: maxConcurrency, rpm: rpm, logger: logger}
}

// SetSearchObserver registers a callback invoked after each per-MP search.
func (s *Service) SetSearchObserver(fn func(ok bool)) {
	s.onSearch = fn
}

// Run searches every MP in parallel and aggregates results in arrival order.
// A failed or unparseable per-MP search is logged and skipped; it never
// aborts the run.
func (s *Service) Run(ctx context.Context, inputs models.RunInputs) (models.SearchResults, error) {
	s.logger.Printf("starting parallel search for %d MPs (concurrency=%d rpm=%d)", len(inputs.MPList), s.maxConcurrency, s.rpm)

	var limiter *rate.Limiter
	if s.rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(s.rpm)/60.0), s.maxConcurrency)
	}
	wait := func(ctx context.Context) error {
		if limiter == nil {
			return nil
		}
		return limiter.Wait(ctx)
	}

	var mu sync.Mutex
	var researchList []models.Article

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for _, mp := range inputs.MPList {
		mp := mp
		g.Go(func() error {
			result, err := s.agent.SearchMP(gctx, mp, inputs.Timeframe, inputs.Today, wait)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Printf("warn: search for %s failed, skipping: %v", mp.Name, err)
				if s.onSearch != nil {
					s.onSearch(false)
				}
				return nil
			}
			if s.onSearch != nil {
				s.onSearch(true)
			}

			articles := make([]models.Article, 0, len(result.Articles))
			for _, a := range result.Articles {
				articles = append(articles, models.Article{
					MPName:          result.MPName,
					Title:           a.Title,
					URL:             a.URL,
					PublicationDate: a.PublicationDate,
					SourceName:      a.Source,
					Summary:         a.Summary,
				})
			}

			mu.Lock()
			researchList = append(researchList, articles...)
			mu.Unlock()
			s.logger.Printf("%s: %d articles", mp.Name, len(articles))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.SearchResults{}, err
	}

	s.logger.Printf("aggregated %d total articles from %d MPs", len(researchList), len(inputs.MPList))
	return models.SearchResults{
		ResearchList: researchList,
		MPCount:      len(inputs.MPList),
		SearchDate:   inputs.Today,
		Timeframe:    inputs.Timeframe,
	}, nil
}
