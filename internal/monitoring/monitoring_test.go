package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsStats(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheHit()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.AddSkippedPairs(2)
	m.IncrementBatch()
	m.RecordCircuitBreakerChange(true)
	m.RecordCircuitBreakerChange(false)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, 50.0, stats["error_rate_percent"])
	assert.Equal(t, 75.0, stats["cache_hit_rate_percent"])
	assert.Equal(t, int64(2), stats["pairs_skipped"])
	assert.Equal(t, int64(1), stats["batch_runs"])
	assert.Equal(t, int64(1), stats["circuit_breaker_opens"])
	assert.Equal(t, int64(1), stats["circuit_breaker_closes"])

	m.Reset()
	assert.Equal(t, int64(0), m.GetStats()["total_requests"])
}

func TestUpstreamStats(t *testing.T) {
	m := NewMetrics()

	m.RecordUpstreamRequest("trust", true)
	m.RecordUpstreamRequest("trust", true)
	m.RecordUpstreamRequest("trust", true)
	m.RecordUpstreamRequest("trust", false)

	trust, ok := m.GetUpstreamStats()["trust"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(4), trust["requests"])
	assert.Equal(t, int64(1), trust["errors"])
	assert.Equal(t, 25.0, trust["error_rate"])
}

func TestPercentileResponseTime(t *testing.T) {
	m := NewMetrics()
	assert.Zero(t, m.GetPercentileResponseTime(50))

	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	assert.Equal(t, 50*time.Millisecond, m.GetPercentileResponseTime(50))
	assert.Equal(t, 100*time.Millisecond, m.GetPercentileResponseTime(100))
}

func TestResponseSamplesAreBounded(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < maxResponseSamples+10; i++ {
		m.RecordResponseTime(time.Millisecond)
	}
	assert.Len(t, m.ResponseTimes, maxResponseSamples)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(raw) == 0 {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestBatchLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOptions(&buf, slog.LevelInfo)

	logger.BatchLogger("analyze_team", 6, 6, 0, time.Millisecond)
	logger.BatchLogger("analyze_team", 6, 4, 2, time.Millisecond)

	lines := decodeLogLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, float64(2), lines[1]["skipped_pairs"])
	assert.Contains(t, lines[0], "timestamp")
}

func TestUpstreamLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOptions(&buf, slog.LevelInfo)

	logger.UpstreamLogger("profiles", "get", time.Millisecond, nil)
	assert.Zero(t, buf.Len())

	logger.UpstreamLogger("profiles", "get", time.Millisecond, errors.New("refused"))
	lines := decodeLogLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "profiles", lines[0]["service"])
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Body.String())
	assert.Equal(t, "given-id", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())
}

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	metrics := NewMetrics()

	r := gin.New()
	r.Use(MonitoringMiddleware(metrics, NewLoggerWithOptions(&buf, slog.LevelInfo)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for _, path := range []string{"/ok", "/ok", "/bad"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, int64(3), metrics.RequestCount)
	assert.Equal(t, int64(1), metrics.ErrorCount)
	assert.Equal(t, map[int]int64{200: 2, 400: 1}, metrics.GetStatusCodeDistribution())
	assert.Len(t, decodeLogLines(t, &buf), 3)
}
