// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics collection for the storage server.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxResponseTimes bounds the response-time ring buffer used to compute the
// rolling average exposed via wavy_response_time_avg_ms.
const maxResponseTimes = 1000

var (
	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavy_requests_total",
		Help: "Total number of HTTP requests handled",
	})
	requestsSuccessful = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavy_requests_successful_total",
		Help: "Total number of HTTP requests that completed with a 2xx status",
	})
	requestsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavy_requests_failed_total",
		Help: "Total number of HTTP requests that completed with a non-2xx status",
	})
	uploadRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavy_upload_requests_total",
		Help: "Total number of archive upload requests",
	})
	deleteRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavy_delete_requests_total",
		Help: "Total number of delete requests",
	})
	downloadRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavy_download_requests_total",
		Help: "Total number of segment/playlist download requests",
	})
	bytesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavy_bytes_uploaded_total",
		Help: "Total bytes received by the upload endpoint",
	})
	bytesDownloaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavy_bytes_downloaded_total",
		Help: "Total bytes streamed out by download/stream endpoints",
	})
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wavy_active_connections",
		Help: "Number of HTTP requests currently being served",
	})
	errorsByStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavy_errors_total",
		Help: "Total number of requests by failing HTTP status class",
	}, []string{"status"})
	responseTimeAvg = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wavy_response_time_avg_ms",
		Help: "Average response time in milliseconds over the most recent requests",
	})
	uptimeSeconds = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "wavy_uptime_seconds",
		Help: "Server uptime in seconds",
	}, func() float64 {
		return time.Since(startTime).Seconds()
	})

	ownerUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavy_owner_uploads_total",
		Help: "Total uploads accepted per owner",
	}, []string{"owner"})
	ownerDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavy_owner_deletes_total",
		Help: "Total deletes accepted per owner",
	}, []string{"owner"})
	ownerSongsCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wavy_owner_songs_count",
		Help: "Current number of audio ids stored for this owner",
	}, []string{"owner"})
	ownerStorageBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wavy_owner_storage_bytes",
		Help: "Current bytes on disk attributed to this owner",
	}, []string{"owner"})

	startTime = time.Now()
)

// ResponseTimer is a scoped timer: construct at request entry, call Stop when
// the request completes to record its elapsed duration into the rolling window.
type ResponseTimer struct {
	start time.Time
}

// StartTimer begins timing a request.
func StartTimer() *ResponseTimer {
	return &ResponseTimer{start: time.Now()}
}

// Stop records the elapsed duration since StartTimer into the bounded
// response-time window and updates the rolling average gauge.
func (t *ResponseTimer) Stop() {
	recordResponseTime(time.Since(t.start))
}

var (
	responseTimesMu sync.Mutex
	responseTimes   []time.Duration
)

func recordResponseTime(d time.Duration) {
	responseTimesMu.Lock()
	responseTimes = append(responseTimes, d)
	if len(responseTimes) > maxResponseTimes {
		// Oldest sample evicted when the ring buffer is full.
		responseTimes = responseTimes[1:]
	}
	avg := average(responseTimes)
	responseTimesMu.Unlock()

	responseTimeAvg.Set(avg)
}

func average(samples []time.Duration) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, s := range samples {
		total += s
	}
	return float64(total.Milliseconds()) / float64(len(samples))
}

// AvgResponseTimeMillis returns the current rolling average response time.
func AvgResponseTimeMillis() float64 {
	responseTimesMu.Lock()
	defer responseTimesMu.Unlock()
	return average(responseTimes)
}

// RequestStarted increments the total-request and active-connection counters.
func RequestStarted() {
	requestsTotal.Inc()
	activeConnections.Inc()
}

// RequestFinished decrements active connections and classifies the outcome by
// status code, feeding both the success/failure counters and the per-status
// error counters.
func RequestFinished(status int) {
	activeConnections.Dec()
	if status >= 200 && status < 300 {
		requestsSuccessful.Inc()
		return
	}
	requestsFailed.Inc()
	switch {
	case status == 400:
		errorsByStatus.WithLabelValues("400").Inc()
	case status == 403:
		errorsByStatus.WithLabelValues("403").Inc()
	case status == 404:
		errorsByStatus.WithLabelValues("404").Inc()
	case status >= 500:
		errorsByStatus.WithLabelValues("500").Inc()
	default:
		errorsByStatus.WithLabelValues("other").Inc()
	}
}

// RecordUpload accounts for a completed upload: request/byte counters plus
// the per-owner uploads and storage_bytes gauges.
func RecordUpload(owner string, bytes int64, songsCount int, storageBytes int64) {
	uploadRequests.Inc()
	bytesUploaded.Add(float64(bytes))
	ownerUploads.WithLabelValues(owner).Inc()
	ownerSongsCount.WithLabelValues(owner).Set(float64(songsCount))
	ownerStorageBytes.WithLabelValues(owner).Add(float64(storageBytes))
}

// RecordDelete accounts for a completed delete: request counter plus the
// per-owner deletes counter and updated songs_count/storage_bytes gauges.
func RecordDelete(owner string, songsCount int, storageBytes int64) {
	deleteRequests.Inc()
	ownerDeletes.WithLabelValues(owner).Inc()
	ownerSongsCount.WithLabelValues(owner).Set(float64(songsCount))
	ownerStorageBytes.WithLabelValues(owner).Set(float64(storageBytes))
}

// RecordDownload accounts for a completed download/stream request.
func RecordDownload(bytes int64) {
	downloadRequests.Inc()
	bytesDownloaded.Add(float64(bytes))
}
