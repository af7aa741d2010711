// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"net/http"
	"os"
	"strings"

	"github.com/ManuGH/wavy-storage/internal/log"
	"github.com/ManuGH/wavy-storage/internal/metrics"
	"github.com/ManuGH/wavy-storage/internal/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Download handles GET /hls/<owner>/<audio>/<filename>: serves a playlist,
// segment, or init file directly from the owner/audio directory, reusing the
// ETag/Cache-Control serving path shared with the legacy file server.
func (s *WavyServer) Download(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "control.http.download")

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

	path, err := s.Storage.ResolveServingPath(owner, audio, filename)
	if err != nil {
		logger.Warn().Err(err).Str("owner", owner).Str("audio", audio).Str("filename", filename).Msg("rejected serving path")
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Str("path", path).Msg("stat failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	if err := serveSecureFileContent(w, r, path, r.URL.Path, logger, s.FileMetrics); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("could not serve file")
		s.FileMetrics.Denied("internal_error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	metrics.RecordDownload(info.Size())
}

// downloadContentType maps a filename suffix to its serving content type,
// grounded on the playlist/segment grammars in the data model.
func downloadContentType(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".m3u8"):
		return "application/vnd.apple.mpegurl"
	case strings.HasSuffix(lower, ".ts"):
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}
