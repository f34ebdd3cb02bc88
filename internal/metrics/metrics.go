// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonathan/cb-discovery/internal/llm"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ScoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_scores_computed_total",
			Help: "Total number of maturity reports computed",
		},
		[]string{"source"},
	)

	Submissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_submissions_total",
			Help: "Total number of survey submissions stored",
		},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_llm_calls_total",
			Help: "Total number of completion calls by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_llm_call_duration_seconds",
			Help:    "Duration of completion calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"tier"},
	)
)

// Completion call outcomes
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

// Completer records call counts and latency of an underlying completer.
type Completer struct {
	next llm.Completer
}

// InstrumentCompleter wraps next with call metrics.
func InstrumentCompleter(next llm.Completer) *Completer {
	return &Completer{next: next}
}

// Generate delegates to the wrapped completer.
func (c *Completer) Generate(ctx context.Context, req llm.Request) (string, error) {
	tier := string(req.Tier)
	if tier == "" {
		tier = string(llm.TierStandard)
	}

	start := time.Now()
	out, err := c.next.Generate(ctx, req)

	switch {
	case errors.Is(err, llm.ErrUnavailable):
		LLMCalls.WithLabelValues(tier, OutcomeUnavailable).Inc()
		return out, err
	case err != nil:
		LLMCalls.WithLabelValues(tier, OutcomeError).Inc()
	default:
		LLMCalls.WithLabelValues(tier, OutcomeOK).Inc()
	}
	LLMDuration.WithLabelValues(tier).Observe(time.Since(start).Seconds())
	return out, err
}
