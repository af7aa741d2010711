// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"io"
	"net/http"
	"os"

	"github.com/ManuGH/wavy-storage/internal/log"
	"github.com/ManuGH/wavy-storage/internal/metrics"
	"github.com/ManuGH/wavy-storage/internal/ratelimit"
	"github.com/go-chi/chi/v5"
)

// streamChunkSize is the write granularity for the chunked streaming
// downloader, matched to the spec's 64 KiB chunk requirement.
const streamChunkSize = 64 * 1024

// Stream handles GET /stream/<owner>/<audio>/<filename>: streams a file out
// in fixed-size chunks under a download-concurrency semaphore, aborting
// promptly when the client disconnects.
func (s *WavyServer) Stream(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "control.http.stream")

	owner := chi.URLParam(r, "owner")
	audio := chi.URLParam(r, "audio")
	filename := chi.URLParam(r, "filename")

	if s.ServingLimiter != nil {
		class := ratelimit.ContentClass(filename)
		if !s.ServingLimiter.Allow(ratelimit.GetClientIP(r), class) {
			logger.Warn().Str("owner", owner).Str("audio", audio).Str("class", class).Msg("rate limited")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
	}

	ctx := r.Context()
	if !s.DownloadSem.TryAcquire(1) {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	defer s.DownloadSem.Release(1)

	path, err := s.Storage.ResolveServingPath(owner, audio, filename)
	if err != nil {
		logger.Warn().Err(err).Str("owner", owner).Str("audio", audio).Str("filename", filename).Msg("rejected serving path")
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(path) // #nosec G304 -- path confined by ResolveServingPath
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Str("path", path).Msg("open failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", downloadContentType(filename))
	w.Header().Set("Transfer-Encoding", "chunked")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	buf := make([]byte, streamChunkSize)
	var sent int64

	for {
		select {
		case <-ctx.Done():
			logger.Info().Str("path", path).Int64("sent_bytes", sent).Msg("stream aborted: client disconnected")
			metrics.RecordDownload(sent)
			return
		default:
		}

		n, readErr := f.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				logger.Info().Err(writeErr).Str("path", path).Int64("sent_bytes", sent).Msg("stream write failed, client likely disconnected")
				metrics.RecordDownload(sent)
				return
			}
			sent += int64(n)
			if canFlush {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			logger.Error().Err(readErr).Str("path", path).Msg("read failed mid-stream")
			metrics.RecordDownload(sent)
			return
		}
	}

	metrics.RecordDownload(sent)
}
