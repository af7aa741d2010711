// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"net/http"

	"github.com/ManuGH/wavy-storage/internal/log"
	"github.com/ManuGH/wavy-storage/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Delete handles DELETE /<owner>/<audio>?sha256=<digest>: removes an audio's
// artifacts only when the caller presents the deletion key persisted at
// upload time. A wrong or absent key is rejected without mutating anything.
func (s *WavyServer) Delete(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "control.http.delete")

	owner := chi.URLParam(r, "owner")
	audio := chi.URLParam(r, "audio")
	digest := r.URL.Query().Get("sha256")

	if digest == "" {
		logger.Warn().Str("owner", owner).Str("audio", audio).Msg("rejected delete: missing sha256 query parameter")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if !s.Index.Has(owner, audio) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	storedKey, err := s.Storage.ReadKey(audio)
	if err != nil {
		logger.Error().Err(err).Str("owner", owner).Str("audio", audio).Msg("deletion key unreadable")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if digest != storedKey {
		logger.Warn().Str("owner", owner).Str("audio", audio).Msg("rejected delete: deletion key mismatch")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := s.Storage.RemoveAudio(owner, audio); err != nil {
		logger.Error().Err(err).Str("owner", owner).Str("audio", audio).Msg("failed to remove audio artifacts")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.Index.Delete(owner, audio)
	if s.Ingest.RecoveryStore != nil {
		if err := s.Ingest.RecoveryStore.Remove(owner, audio); err != nil {
			logger.Warn().Err(err).Str("owner", owner).Str("audio", audio).Msg("recovery store removal failed")
		}
	}

	songsCount := s.Index.SongsCount(owner)
	metrics.RecordDelete(owner, songsCount, 0)

	w.WriteHeader(http.StatusOK)
	logger.Info().Str("owner", owner).Str("audio", audio).Msg("audio deleted")
}
