package telemetry

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"mpfeed/config"
)

func TestRecordLLMCostTracking(t *testing.T) {
	tel := New(config.TelemetryConfig{CostTracking: true}, nil)
	model := config.LLMModel{Name: "gpt-4o-mini", CostPer1K: 0.15, CostPer1KOutput: 0.60}

	tel.RecordLLM(model, 2000, 1000)
	tel.RecordLLM(model, 1000, 0)

	// 3000 prompt tokens * 0.15/1K + 1000 completion tokens * 0.60/1K
	want := 3*0.15 + 1*0.60
	if got := tel.TotalCost(); math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalCost() = %v, want %v", got, want)
	}
}

func TestRecordLLMCostTrackingDisabled(t *testing.T) {
	tel := New(config.TelemetryConfig{CostTracking: false}, nil)
	tel.RecordLLM(config.LLMModel{Name: "m", CostPer1K: 1}, 1000, 1000)
	if got := tel.TotalCost(); got != 0 {
		t.Errorf("TotalCost() = %v, want 0 with cost tracking disabled", got)
	}
}

func TestCounters(t *testing.T) {
	tel := New(config.TelemetryConfig{}, nil)

	tel.RecordSearch(true)
	tel.RecordSearch(true)
	tel.RecordSearch(false)
	if got := testutil.ToFloat64(tel.searchesTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("searches success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(tel.searchesTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("searches failure = %v, want 1", got)
	}

	tel.RecordArticles(7)
	if got := testutil.ToFloat64(tel.articlesAggregated); got != 7 {
		t.Errorf("articles = %v, want 7", got)
	}

	tel.RecordEmail(true)
	if got := testutil.ToFloat64(tel.emailSendsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("email success = %v, want 1", got)
	}
}
