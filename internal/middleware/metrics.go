package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AnalysesSubmitted  uint64
	AnalysesCommitted  uint64
	AnalysesCleared    uint64
	ChatStreams        uint64
	ChatFailures       uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

// IncrementAnalysesSubmitted counts accepted video uploads.
func IncrementAnalysesSubmitted() {
	atomic.AddUint64(&globalMetrics.AnalysesSubmitted, 1)
}

// IncrementAnalysesCommitted counts evaluations saved to history.
func IncrementAnalysesCommitted() {
	atomic.AddUint64(&globalMetrics.AnalysesCommitted, 1)
}

func IncrementAnalysesCleared() {
	atomic.AddUint64(&globalMetrics.AnalysesCleared, 1)
}

func IncrementChatStreams() {
	atomic.AddUint64(&globalMetrics.ChatStreams, 1)
}

func IncrementChatFailures() {
	atomic.AddUint64(&globalMetrics.ChatFailures, 1)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"analyses": map[string]interface{}{
			"submitted": atomic.LoadUint64(&globalMetrics.AnalysesSubmitted),
			"committed": atomic.LoadUint64(&globalMetrics.AnalysesCommitted),
			"cleared":   atomic.LoadUint64(&globalMetrics.AnalysesCleared),
		},
		"chat": map[string]interface{}{
			"streams":  atomic.LoadUint64(&globalMetrics.ChatStreams),
			"failures": atomic.LoadUint64(&globalMetrics.ChatFailures),
		},
		"uptime_seconds": time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes": m.Alloc,
			"sys_bytes":   m.Sys,
			"num_gc":      m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
