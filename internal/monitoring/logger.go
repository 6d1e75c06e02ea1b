package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger provides structured logging with domain helpers
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger writing to stdout at info level
func NewLogger() *Logger {
	return NewLoggerWithOptions(os.Stdout, slog.LevelInfo)
}

// NewLoggerWithOptions creates a JSON logger with an explicit sink and level
func NewLoggerWithOptions(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, requestID string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"request_id", requestID,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// PredictionLogger logs a single-pair prediction
func (l *Logger) PredictionLogger(a, b string, score int, confidence float64, duration time.Duration, cacheHit bool) {
	l.Debug("Prediction Completed",
		"entity_a", a,
		"entity_b", b,
		"score", score,
		"confidence", confidence,
		"duration_ms", duration.Milliseconds(),
		"cache_hit", cacheHit,
	)
}

// BatchLogger logs the summary of a fan-out operation
func (l *Logger) BatchLogger(operation string, total, completed, skipped int, duration time.Duration) {
	level := slog.LevelInfo
	if skipped > 0 {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "Batch Completed",
		"operation", operation,
		"total_pairs", total,
		"completed_pairs", completed,
		"skipped_pairs", skipped,
		"duration_ms", duration.Milliseconds(),
	)
}

// UpstreamLogger logs calls to the profile store, candidate directory and trust service
func (l *Logger) UpstreamLogger(service, operation string, duration time.Duration, err error) {
	if err != nil {
		l.Warn("Upstream Call Failed",
			"service", service,
			"operation", operation,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return
	}

	l.Debug("Upstream Call",
		"service", service,
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool) {
	l.Debug("Cache Operation",
		"operation", operation,
		"key", key,
		"hit", hit,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
