package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"farm-voice/internal/domain"
)

func TestMetrics_CountsByLabel(t *testing.T) {
	m := New()

	m.StageCompleted(domain.StageTranslateOut, true, time.Millisecond)
	m.StageCompleted(domain.StageTranslateOut, true, time.Millisecond)
	m.StageCompleted(domain.StageTranslateOut, false, time.Millisecond)
	m.QueryCompleted(false, false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.stages.WithLabelValues(string(domain.StageTranslateOut), "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stages.WithLabelValues(string(domain.StageTranslateOut), "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("false", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.queries))
}
