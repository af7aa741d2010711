// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"fmt"
	"net/http"

	"github.com/ManuGH/wavy-storage/internal/apperr"
	"github.com/ManuGH/wavy-storage/internal/log"
	"github.com/ManuGH/wavy-storage/internal/metrics"
)

// Upload handles POST /toml/upload: ingests an archive and reports the
// assigned audio id and deletion key.
func (s *WavyServer) Upload(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "control.http.upload")

	result, err := s.Ingest.Ingest(r.Body)
	if err != nil {
		status := apperr.StatusCode(err)
		logger.Error().Err(err).Int("status", status).Msg("upload failed")
		http.Error(w, http.StatusText(status), status)
		return
	}

	uploadedBytes := r.ContentLength
	if uploadedBytes < 0 {
		uploadedBytes = 0
	}
	songsCount := s.Index.SongsCount(result.Owner)
	metrics.RecordUpload(result.Owner, uploadedBytes, songsCount, 0)

	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Audio-ID", result.AudioID)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "audio_id=%s\nsha256=%s\nkey_persisted=%t\n", result.AudioID, result.SHA256, result.KeyPersisted)

	logger.Info().Str("owner", result.Owner).Str("audio_id", result.AudioID).Int("files", result.FilesAccepted).Msg("upload accepted")
}
