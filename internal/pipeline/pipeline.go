// Package pipeline sequences the three phases of a news feed run and owns the
// on-disk artifacts that let phases run independently.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"mpfeed/config"
	"mpfeed/internal/analysis"
	"mpfeed/internal/distribution"
	"mpfeed/internal/logging"
	"mpfeed/internal/search"
	"mpfeed/internal/telemetry"
	"mpfeed/models"
	"mpfeed/provider"
	"mpfeed/tools/email"
	"mpfeed/tools/web_search"
)

// Mode selects which phases of the pipeline execute.
type Mode string

const (
	ModeFull    Mode = "full"
	ModeSearch  Mode = "search"
	ModeAnalyze Mode = "analyze"
	ModeEmail   Mode = "email"
)

// Runner wires configuration, agents, logging and telemetry into a single
// run.
type Runner struct {
	cfg    *config.Config
	agents *config.AgentsFile
	tel    *telemetry.Telemetry
	logs   *logging.Factory
	logger *log.Logger
}

// NewRunner loads the agent definitions and prepares a runner. Provider
// clients are built per phase so that, for example, an email-only run does
// not require a search API key. logs may be nil, in which case a factory
// honoring general.log_level is built on stderr.
func NewRunner(cfg *config.Config, logs *logging.Factory) (*Runner, error) {
	agents, err := config.LoadAgents(cfg.Knowledge.AgentsFile)
	if err != nil {
		return nil, fmt.Errorf("loading agent definitions: %w", err)
	}
	if logs == nil {
		logs = logging.New(os.Stderr, cfg.General)
	}
	return &Runner{
		cfg:    cfg,
		agents: agents,
		tel:    telemetry.New(cfg.Telemetry, logs.Component("telemetry")),
		logs:   logs,
		logger: logs.Component("pipeline"),
	}, nil
}

// Run executes the phases selected by mode. Artifacts are written after each
// phase so a later run can resume from them.
func (r *Runner) Run(ctx context.Context, mode Mode) error {
	runID := uuid.NewString()[:8]
	inputs, err := r.BuildInputs()
	if err != nil {
		return err
	}
	r.logger.Printf("run %s starting (mode=%s, mps=%d, timeframe=%s)", runID, mode, len(inputs.MPList), inputs.Timeframe)

	if r.cfg.Telemetry.Enabled {
		r.tel.Serve()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			r.tel.Shutdown(shutdownCtx)
		}()
	}
	defer r.tel.LogSummary()

	var results models.SearchResults
	var report string

	if mode == ModeFull || mode == ModeSearch {
		results, err = r.runSearch(ctx, inputs)
		if err != nil {
			return err
		}
		if err := SaveSearchResults(r.cfg.Output.SearchResultsPath(), results); err != nil {
			return err
		}
		r.logger.Printf("search results saved to %s (%d articles)", r.cfg.Output.SearchResultsPath(), len(results.ResearchList))
	}

	if mode == ModeFull || mode == ModeAnalyze {
		if mode == ModeAnalyze {
			results, err = LoadSearchResults(r.cfg.Output.SearchResultsPath())
			if err != nil {
				return err
			}
		}
		report, err = r.runAnalysis(ctx, results, inputs)
		if err != nil {
			return err
		}
		if err := SaveReport(r.cfg.Output.ReportPath(), report); err != nil {
			return err
		}
		r.logger.Printf("summary report saved to %s", r.cfg.Output.ReportPath())
	}

	if mode == ModeFull || mode == ModeEmail {
		if mode == ModeEmail {
			report, err = LoadReport(r.cfg.Output.ReportPath())
			if err != nil {
				return err
			}
		}
		if err := r.runEmail(ctx, report, inputs); err != nil {
			return err
		}
	}

	r.logger.Printf("run %s finished", runID)
	return nil
}

// BuildInputs assembles the date-aware inputs shared by every phase.
func (r *Runner) BuildInputs() (models.RunInputs, error) {
	mps, err := LoadMPList(r.cfg.Knowledge.MPListPath)
	if err != nil {
		return models.RunInputs{}, err
	}
	now := time.Now()
	return models.RunInputs{
		MPList:     mps,
		Today:      now.Format("2006-01-02"),
		Timeframe:  fmt.Sprintf("%d months", r.cfg.Knowledge.TimeframeMonths),
		DateRange:  DateRange(now, r.cfg.Knowledge.TimeframeMonths),
		TeamEmail:  r.cfg.Email.TeamEmail,
		FocusAreas: r.cfg.Knowledge.FocusAreas,
	}, nil
}

// DateRange renders the covered window as a human-readable span ending today.
// The start date carries no year; the end date does.
func DateRange(now time.Time, monthsBack int) string {
	start := now.AddDate(0, -monthsBack, 0)
	return fmt.Sprintf("%s - %s", start.Format("Jan 02"), now.Format("Jan 02, 2006"))
}

func (r *Runner) runSearch(ctx context.Context, inputs models.RunInputs) (models.SearchResults, error) {
	r.logger.Printf("===== phase 1: search =====")
	if err := r.cfg.Search.Validate(); err != nil {
		return models.SearchResults{}, err
	}
	if err := r.cfg.LLM.Validate(); err != nil {
		return models.SearchResults{}, err
	}

	llm, err := provider.NewProvider(provider.OpenAI, r.cfg.LLM)
	if err != nil {
		return models.SearchResults{}, err
	}
	searcher, err := web_search.NewWebSearcher(
		web_search.Provider(r.cfg.Search.Provider),
		r.cfg.Search.ResolveAPIKey(),
		r.cfg.Search.Timeout,
	)
	if err != nil {
		return models.SearchResults{}, err
	}

	agent := search.NewAgent(r.cfg, r.agents, llm, searcher, r.logs.Component("search"))
	agent.SetLLMObserver(r.tel.RecordLLM)
	svc := search.NewService(agent, r.cfg.Search.MaxConcurrency, r.cfg.Search.RPM(), r.logs.Component("search"))
	svc.SetSearchObserver(r.tel.RecordSearch)

	start := time.Now()
	results, err := svc.Run(ctx, inputs)
	r.tel.ObservePhase("search", time.Since(start))
	if err != nil {
		return models.SearchResults{}, err
	}
	r.tel.RecordArticles(len(results.ResearchList))
	return results, nil
}

func (r *Runner) runAnalysis(ctx context.Context, results models.SearchResults, inputs models.RunInputs) (string, error) {
	r.logger.Printf("===== phase 2: analysis =====")
	if err := r.cfg.LLM.Validate(); err != nil {
		return "", err
	}

	llm, err := provider.NewProvider(provider.OpenAI, r.cfg.LLM)
	if err != nil {
		return "", err
	}
	fetcher := analysis.NewFetcher(r.cfg.General.DefaultTimeout)
	p := analysis.NewPipeline(r.cfg, r.agents, llm, fetcher, r.logs.Component("analysis"))
	p.SetLLMObserver(r.tel.RecordLLM)

	start := time.Now()
	report, err := p.Run(ctx, results, inputs)
	r.tel.ObservePhase("analysis", time.Since(start))
	if err != nil {
		return "", err
	}
	return report, nil
}

func (r *Runner) runEmail(ctx context.Context, report string, inputs models.RunInputs) error {
	r.logger.Printf("===== phase 3: distribution =====")
	if err := r.cfg.Email.Validate(); err != nil {
		return err
	}

	sender, err := email.NewSender(
		email.Provider(r.cfg.Email.Provider),
		r.cfg.Email.ResolveAPIKey(),
		r.cfg.Email.Timeout,
	)
	if err != nil {
		return err
	}
	svc := distribution.NewService(r.cfg.Email, r.agents, sender, r.logs.Component("distribution"))
	svc.SetEmailObserver(r.tel.RecordEmail)

	start := time.Now()
	_, err = svc.Distribute(ctx, report, inputs)
	r.tel.ObservePhase("distribution", time.Since(start))
	return err
}
