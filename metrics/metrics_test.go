package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Prometheus) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestPrometheusCounters(t *testing.T) {
	m := NewPrometheus()
	m.RecordMatchesGenerated("quarterfinal", 4)
	m.RecordMatchesGenerated("quarterfinal", 4)
	m.RecordScoreRejected("score_validity")
	m.RecordOperationDuration("advance_round", 20*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `bracket_matches_generated_total{round="quarterfinal"} 8`)
	assert.Contains(t, body, `bracket_score_rejections_total{reason="score_validity"} 1`)
	assert.Contains(t, body, `bracket_operation_duration_seconds_count{operation="advance_round"} 1`)
}

func TestNopSatisfiesInterface(t *testing.T) {
	var m Metrics = NewNop()
	m.RecordRollupFailure("career")
	m = NewPrometheus()
	m.RecordPublishFailure("snapshot")
}
