package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-voice/internal/domain"
	"farm-voice/internal/infra/metrics"
)

func TestMetrics_Exposition(t *testing.T) {
	m := metrics.New()

	m.StageCompleted(domain.StageTranscribe, true, 120*time.Millisecond)
	m.StageCompleted(domain.StageTranslateIn, false, 40*time.Millisecond)
	m.QueryCompleted(true, true, time.Second)
	m.BreakerStateChanged("translator", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `farmvoice_stage_total{fallback="true",stage="transcribe"} 1`)
	assert.Contains(t, text, `farmvoice_queries_total{degraded="true",success="true"} 1`)
	assert.Contains(t, text, `farmvoice_breaker_open{capability="translator"} 1`)
}

func TestMetrics_BreakerGaugeResets(t *testing.T) {
	m := metrics.New()
	m.BreakerStateChanged("transcriber", true)
	m.BreakerStateChanged("transcriber", false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Contains(t, rec.Body.String(), `farmvoice_breaker_open{capability="transcriber"} 0`)
}
