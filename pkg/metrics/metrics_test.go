package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWith(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWith("drachma_test", reg)

	m.ImportsTotal.WithLabelValues(OutcomeCompleted).Inc()
	m.ImportsTotal.WithLabelValues(OutcomeCompleted).Inc()
	m.RowsSkipped.WithLabelValues(SkipDuplicate).Add(5)
	m.SyncRuns.Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ImportsTotal.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.RowsSkipped.WithLabelValues(SkipDuplicate)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SyncRuns))
}

func TestNewWithSeparateRegistries(t *testing.T) {
	// Two instances must not collide when given independent registries.
	a := NewWith("drachma_test", prometheus.NewRegistry())
	b := NewWith("drachma_test", prometheus.NewRegistry())

	a.ImportsTotal.WithLabelValues(OutcomeRejected).Inc()

	require.Equal(t, float64(1), testutil.ToFloat64(a.ImportsTotal.WithLabelValues(OutcomeRejected)))
	require.Equal(t, float64(0), testutil.ToFloat64(b.ImportsTotal.WithLabelValues(OutcomeRejected)))
}
