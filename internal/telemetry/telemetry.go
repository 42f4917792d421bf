// Package telemetry provides run metrics and LLM cost tracking for the
// pipeline, optionally exposed on a Prometheus /metrics listener.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mpfeed/config"
)

// Telemetry tracks per-run metrics and LLM costs.
type Telemetry struct {
	config config.TelemetryConfig
	logger *log.Logger

	mu          sync.Mutex
	modelCosts  map[string]float64
	modelTokens map[string]int64
	totalCost   float64
	totalTokens int64

	registry *prometheus.Registry
	server   *http.Server

	searchesTotal      *prometheus.CounterVec
	articlesAggregated prometheus.Counter
	llmRequestsTotal   *prometheus.CounterVec
	llmTokensTotal     *prometheus.CounterVec
	emailSendsTotal    *prometheus.CounterVec
	phaseDuration      *prometheus.HistogramVec
}

// New creates a telemetry instance and registers its collectors. logger may
// be nil.
func New(cfg config.TelemetryConfig, logger *log.Logger) *Telemetry {
	if logger == nil {
		logger = log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags)
	}
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		config:      cfg,
		logger:      logger,
		modelCosts:  make(map[string]float64),
		modelTokens: make(map[string]int64),
		registry:    reg,
		searchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mpfeed_searches_total",
			Help: "Per-MP search executions by status.",
		}, []string{"status"}),
		articlesAggregated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpfeed_articles_aggregated_total",
			Help: "Articles aggregated into the search results artifact.",
		}),
		llmRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mpfeed_llm_requests_total",
			Help: "LLM completion requests by model.",
		}, []string{"model"}),
		llmTokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mpfeed_llm_tokens_total",
			Help: "LLM tokens consumed by model and direction.",
		}, []string{"model", "direction"}),
		emailSendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mpfeed_email_sends_total",
			Help: "Email delivery attempts by status.",
		}, []string{"status"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mpfeed_phase_duration_seconds",
			Help:    "Duration of each pipeline phase.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
	}
	reg.MustRegister(
		t.searchesTotal, t.articlesAggregated, t.llmRequestsTotal,
		t.llmTokensTotal, t.emailSendsTotal, t.phaseDuration,
	)
	return t
}

// Serve starts the /metrics listener when telemetry is enabled. It returns
// immediately; the listener runs until Shutdown.
func (t *Telemetry) Serve() {
	if !t.config.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{}))
	t.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", t.config.MetricsPort),
		Handler: mux,
	}
	go func() {
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.logger.Printf("metrics listener failed: %v", err)
		}
	}()
	t.logger.Printf("metrics listening on :%d", t.config.MetricsPort)
}

// Shutdown stops the metrics listener, if running.
func (t *Telemetry) Shutdown(ctx context.Context) {
	if t.server != nil {
		_ = t.server.Shutdown(ctx)
	}
}

// RecordSearch records one per-MP search execution.
func (t *Telemetry) RecordSearch(ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	t.searchesTotal.WithLabelValues(status).Inc()
}

// RecordArticles records articles added to the aggregated results.
func (t *Telemetry) RecordArticles(n int) {
	t.articlesAggregated.Add(float64(n))
}

// RecordLLM records one completion and accumulates its cost from the model's
// configured per-1K token prices.
func (t *Telemetry) RecordLLM(model config.LLMModel, promptTokens, completionTokens int64) {
	t.llmRequestsTotal.WithLabelValues(model.Name).Inc()
	t.llmTokensTotal.WithLabelValues(model.Name, "prompt").Add(float64(promptTokens))
	t.llmTokensTotal.WithLabelValues(model.Name, "completion").Add(float64(completionTokens))

	if !t.config.CostTracking {
		return
	}
	cost := float64(promptTokens)/1000*model.CostPer1K + float64(completionTokens)/1000*model.CostPer1KOutput

	t.mu.Lock()
	t.modelCosts[model.Name] += cost
	t.modelTokens[model.Name] += promptTokens + completionTokens
	t.totalCost += cost
	t.totalTokens += promptTokens + completionTokens
	t.mu.Unlock()
}

// RecordEmail records one email delivery attempt.
func (t *Telemetry) RecordEmail(ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	t.emailSendsTotal.WithLabelValues(status).Inc()
}

// ObservePhase records the duration of one pipeline phase.
func (t *Telemetry) ObservePhase(phase string, d time.Duration) {
	t.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// TotalCost returns the accumulated LLM cost for this run.
func (t *Telemetry) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCost
}

// LogSummary prints per-model token and cost totals at the end of a run.
func (t *Telemetry) LogSummary() {
	if !t.config.CostTracking {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for model, cost := range t.modelCosts {
		t.logger.Printf("model=%s tokens=%d cost=$%.4f", model, t.modelTokens[model], cost)
	}
	t.logger.Printf("total tokens=%d cost=$%.4f", t.totalTokens, t.totalCost)
}
