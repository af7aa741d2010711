// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"github.com/ManuGH/wavy-storage/internal/index"
	"github.com/ManuGH/wavy-storage/internal/ingest"
	"github.com/ManuGH/wavy-storage/internal/ratelimit"
	"github.com/ManuGH/wavy-storage/internal/storage"
	"golang.org/x/sync/semaphore"
)

// WavyServer holds every dependency the Wavy HTTP handlers need. It carries
// no behaviour of its own beyond routing requests into the domain packages.
type WavyServer struct {
	Index       *index.Index
	Storage     *storage.Manager
	Ingest      *ingest.Pipeline
	DownloadSem *semaphore.Weighted
	FileMetrics FileMetrics

	// ServingLimiter throttles Download/Stream per client IP and per served
	// content class (playlist/segment/init), on top of DownloadSem's global
	// concurrency bound.
	ServingLimiter *ratelimit.Limiter
}

// NewWavyServer constructs a WavyServer with a download concurrency bound of
// maxConcurrentDownloads (see spec §4.8).
func NewWavyServer(idx *index.Index, store *storage.Manager, pipeline *ingest.Pipeline, maxConcurrentDownloads int64) *WavyServer {
	if maxConcurrentDownloads <= 0 {
		maxConcurrentDownloads = 64
	}
	return &WavyServer{
		Index:          idx,
		Storage:        store,
		Ingest:         pipeline,
		DownloadSem:    semaphore.NewWeighted(maxConcurrentDownloads),
		FileMetrics:    NewPromFileMetrics(),
		ServingLimiter: ratelimit.New(ratelimit.DefaultConfig()),
	}
}
