// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ingest orchestrates one upload end to end: receive → temp-write →
// archive read → per-file validate → owner discovery → final placement →
// hash+key persist → index update → temp cleanup.
package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ManuGH/wavy-storage/internal/apperr"
	"github.com/ManuGH/wavy-storage/internal/archive"
	"github.com/ManuGH/wavy-storage/internal/hash"
	"github.com/ManuGH/wavy-storage/internal/index"
	"github.com/ManuGH/wavy-storage/internal/log"
	"github.com/ManuGH/wavy-storage/internal/storage"
	"github.com/ManuGH/wavy-storage/internal/validate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Pipeline wires together the components a single ingest run needs.
type Pipeline struct {
	TempRoot         string
	Storage          *storage.Manager
	Index            *index.Index
	RecoveryStore    *index.Store // optional; nil disables persisted recovery
	UploadLimitBytes int64
}

// Result is returned on a successful ingest.
type Result struct {
	AudioID       string
	Owner         string
	SHA256        string
	KeyPersisted  bool
	FilesAccepted int
}

// Ingest reads body (capped at UploadLimitBytes+1 to detect oversize without
// buffering the whole excess), extracts and validates the archive, places
// accepted files into storage, and updates the index. On any failure it
// removes every artifact it created.
func (p *Pipeline) Ingest(body io.Reader) (Result, error) {
	audioID := uuid.NewString()
	logger := log.WithComponent("ingest").With().Str("audio_id", audioID).Logger()

	archivePath := filepath.Join(p.TempRoot, audioID+".tar.gz")
	extractDir := filepath.Join(p.TempRoot, audioID)

	cleanupTemp := func() {
		_ = os.Remove(archivePath)
		_ = os.RemoveAll(extractDir)
	}
	defer cleanupTemp()

	n, err := writeCapped(archivePath, body, p.UploadLimitBytes)
	if err != nil {
		return Result{}, err
	}
	if n == 0 {
		return Result{}, apperr.New(apperr.KindClientMalformed, "ingest.receive", fmt.Errorf("empty request body"))
	}

	digest, err := hash.File(archivePath)
	if err != nil {
		return Result{}, apperr.New(apperr.KindServerIO, "ingest.hash", err)
	}

	entries, err := archive.Extract(archivePath, extractDir)
	if err != nil {
		return Result{}, apperr.New(apperr.KindClientMalformed, "ingest.extract", err)
	}

	owner, accepted := scanAndValidate(entries, logger)
	if owner == "" {
		return Result{}, apperr.New(apperr.KindClientMalformed, "ingest.owner_marker", fmt.Errorf("no owner-marker file found in archive"))
	}
	if len(accepted) == 0 {
		return Result{}, apperr.New(apperr.KindClientMalformed, "ingest.validate", fmt.Errorf("no valid files remained after validation"))
	}

	dir, err := p.Storage.EnsureAudioDir(owner, audioID)
	if err != nil {
		return Result{}, apperr.New(apperr.KindServerInternal, "ingest.collision", err)
	}

	reverted := false
	revert := func() {
		if reverted {
			return
		}
		reverted = true
		if err := p.Storage.RemoveAudio(owner, audioID); err != nil {
			logger.Error().Err(err).Msg("failed to revert partially placed audio directory")
		}
	}

	for _, e := range accepted {
		if err := storage.Place(e.AbsPath, dir, filepath.Base(e.Path)); err != nil {
			revert()
			return Result{}, apperr.New(apperr.KindServerIO, "ingest.place", err)
		}
	}

	if err := p.Storage.PersistKey(audioID, digest); err != nil {
		revert()
		return Result{}, apperr.New(apperr.KindServerIO, "ingest.persist_key", err)
	}

	p.Index.Insert(owner, audioID)
	if p.RecoveryStore != nil {
		if err := p.RecoveryStore.Put(owner, audioID); err != nil {
			logger.Warn().Err(err).Msg("failed to persist index recovery record")
		}
	}

	return Result{
		AudioID:       audioID,
		Owner:         owner,
		SHA256:        digest,
		KeyPersisted:  true,
		FilesAccepted: len(accepted),
	}, nil
}

// scanAndValidate classifies every extracted entry, adopting the owner
// nickname from the owner-marker file and returning only the accepted
// (kept) entries. Unknown and rejected entries are dropped silently, per
// spec.
func scanAndValidate(entries []archive.Entry, logger zerolog.Logger) (owner string, accepted []archive.Entry) {
	for _, e := range entries {
		switch validate.File(e.Path, e.AbsPath) {
		case validate.OwnerMarker:
			owner = validate.OwnerNickname(e.Path)
		case validate.Accept:
			accepted = append(accepted, e)
		case validate.Reject:
			logger.Debug().Str("path", e.Path).Msg("entry failed validation, dropped")
		case validate.Unknown:
			logger.Debug().Str("path", e.Path).Msg("entry has unrecognized extension, dropped")
		}
	}
	return owner, accepted
}

// writeCapped copies src to destPath, stopping as soon as limitBytes+1 have
// been read so an oversize upload fails with 413 before the full body is
// buffered to disk.
func writeCapped(destPath string, src io.Reader, limitBytes int64) (int64, error) {
	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640) // #nosec G304
	if err != nil {
		return 0, apperr.New(apperr.KindServerIO, "ingest.receive", err)
	}
	defer f.Close()

	limited := io.LimitReader(src, limitBytes+1)
	n, err := io.Copy(f, limited)
	if err != nil {
		return 0, apperr.New(apperr.KindServerIO, "ingest.receive", err)
	}
	if n > limitBytes {
		return 0, apperr.New(apperr.KindClientOversize, "ingest.receive", fmt.Errorf("body exceeds upload_limit_mib"))
	}
	return n, nil
}
