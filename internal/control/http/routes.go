// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"github.com/ManuGH/wavy-storage/internal/control/middleware"
	"github.com/ManuGH/wavy-storage/internal/health"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything needed to assemble the full Wavy HTTP
// surface: the canonical middleware stack plus the domain routes.
type RouterConfig struct {
	Stack           middleware.StackConfig
	UploadRateLimit int // requests per minute scoped to POST /toml/upload
}

// NewRouter builds the chi router exposing every endpoint named in the
// external interfaces: ping, owner listing, audio info, upload, download,
// streaming download, delete, health, readiness, and metrics.
func NewRouter(server *WavyServer, healthMgr *health.Manager, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	middleware.ApplyStack(r, cfg.Stack)

	r.Get("/hls/ping", server.Ping)
	r.Get("/hls/owners", server.Owners)
	r.Get("/hls/audio-info/", server.AudioInfo)

	r.With(middleware.UploadRateLimit(cfg.UploadRateLimit)).Post("/toml/upload", server.Upload)

	r.Get("/hls/{owner}/{audio}/{filename}", server.Download)
	r.Get("/stream/{owner}/{audio}/{filename}", server.Stream)

	r.Delete("/{owner}/{audio}", server.Delete)

	r.Get("/health", healthMgr.ServeHealth)
	r.Get("/ready", healthMgr.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
