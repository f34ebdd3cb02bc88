package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cb-discovery/internal/llm"
)

type fixedCompleter struct {
	out string
	err error
}

func (f fixedCompleter) Generate(context.Context, llm.Request) (string, error) {
	return f.out, f.err
}

func TestCompleter_RecordsOutcomes(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		inner   fixedCompleter
		tier    llm.ModelTier
		outcome string
	}{
		{"ok", fixedCompleter{out: "hi"}, llm.TierLite, OutcomeOK},
		{"error", fixedCompleter{err: errors.New("boom")}, llm.TierAdvanced, OutcomeError},
		{"unavailable", fixedCompleter{err: llm.ErrUnavailable}, llm.TierStandard, OutcomeUnavailable},
		{"empty tier is standard", fixedCompleter{out: "x"}, "", OutcomeOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := string(tt.tier)
			if label == "" {
				label = string(llm.TierStandard)
			}
			before := testutil.ToFloat64(LLMCalls.WithLabelValues(label, tt.outcome))

			out, err := InstrumentCompleter(tt.inner).Generate(ctx, llm.Request{Prompt: "p", Tier: tt.tier})
			assert.Equal(t, tt.inner.out, out)
			assert.Equal(t, tt.inner.err, err)

			after := testutil.ToFloat64(LLMCalls.WithLabelValues(label, tt.outcome))
			assert.InDelta(t, 1, after-before, 1e-9)
		})
	}
}

func TestCollectorsRegistered(t *testing.T) {
	HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()
	ScoresComputed.WithLabelValues("test").Inc()
	Submissions.Inc()

	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer,
		"discovery_http_requests_total", "discovery_scores_computed_total", "discovery_submissions_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 3)
}
