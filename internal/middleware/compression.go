package middleware

import (
	"compress/gzip"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	CompressionLevel int      // gzip level, 1-9
	ExcludedPaths    []string // path prefixes served uncompressed
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		CompressionLevel: gzip.DefaultCompression,
		ExcludedPaths:    []string{"/health"},
	}
}

// CompressionMiddleware gzips response bodies for clients that accept it
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	cm := &CompressionMiddleware{
		config: config,
		stats:  &CompressionStats{},
	}
	cm.pool.New = func() interface{} {
		gz, err := gzip.NewWriterLevel(io.Discard, config.CompressionLevel)
		if err != nil {
			gz = gzip.NewWriter(io.Discard)
		}
		return gz
	}
	return cm
}

// Handler returns the gin middleware
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cm.clientAcceptsGzip(c) || cm.excluded(c.Request.URL.Path) {
			c.Next()
			return
		}

		out := &countingWriter{w: c.Writer}
		gz := cm.pool.Get().(*gzip.Writer)
		gz.Reset(out)

		gzw := &gzipResponseWriter{ResponseWriter: c.Writer, gzipWriter: gz}
		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")
		c.Writer = gzw

		defer func() {
			if gzw.size == 0 {
				// nothing to encode: drop the header and the gzip footer
				c.Writer.Header().Del("Content-Encoding")
				gz.Reset(io.Discard)
			}
			gz.Close()
			cm.pool.Put(gz)
			cm.stats.RecordRequest(gzw.size, out.n, gzw.size > 0)
		}()

		c.Next()
	}
}

func (cm *CompressionMiddleware) clientAcceptsGzip(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept-Encoding"), "gzip")
}

func (cm *CompressionMiddleware) excluded(path string) bool {
	for _, prefix := range cm.config.ExcludedPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// gzipResponseWriter routes the body through the gzip writer
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzipWriter *gzip.Writer
	size       int64
}

func (gzw *gzipResponseWriter) Write(data []byte) (int, error) {
	gzw.Header().Del("Content-Length")
	n, err := gzw.gzipWriter.Write(data)
	gzw.size += int64(n)
	return n, err
}

func (gzw *gzipResponseWriter) WriteString(s string) (int, error) {
	return gzw.Write([]byte(s))
}

func (gzw *gzipResponseWriter) Flush() {
	gzw.gzipWriter.Flush()
	gzw.ResponseWriter.Flush()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	BytesIn            int64
	BytesOut           int64
}

// RecordRequest records the sizes of one response
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	atomic.AddInt64(&cs.TotalRequests, 1)
	if !compressed {
		return
	}
	atomic.AddInt64(&cs.CompressedRequests, 1)
	atomic.AddInt64(&cs.BytesIn, originalSize)
	atomic.AddInt64(&cs.BytesOut, compressedSize)
}

// GetStats returns compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	in := atomic.LoadInt64(&cs.BytesIn)
	out := atomic.LoadInt64(&cs.BytesOut)

	ratio := 0.0
	if in > 0 {
		ratio = float64(out) / float64(in)
	}

	return map[string]interface{}{
		"total_requests":      atomic.LoadInt64(&cs.TotalRequests),
		"compressed_requests": atomic.LoadInt64(&cs.CompressedRequests),
		"bytes_in":            in,
		"bytes_out":           out,
		"compression_ratio":   ratio,
	}
}

// GetStats returns the middleware's compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}
