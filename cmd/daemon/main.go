// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	wavyconfig "github.com/ManuGH/wavy-storage/internal/config"
	wavyhttp "github.com/ManuGH/wavy-storage/internal/control/http"
	"github.com/ManuGH/wavy-storage/internal/control/middleware"
	"github.com/ManuGH/wavy-storage/internal/guard"
	"github.com/ManuGH/wavy-storage/internal/health"
	"github.com/ManuGH/wavy-storage/internal/index"
	"github.com/ManuGH/wavy-storage/internal/ingest"
	xglog "github.com/ManuGH/wavy-storage/internal/log"
	"github.com/ManuGH/wavy-storage/internal/storage"
	wavytls "github.com/ManuGH/wavy-storage/internal/tls"
	"github.com/ManuGH/wavy-storage/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (TOML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "wavy-storage", Version: version.Version})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	cfg, err := wavyconfig.Load(strings.TrimSpace(*configPath))
	if err != nil {
		logger.Fatal().Err(err).Str("event", "config.load_failed").Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "wavy-storage", Version: version.Version})
	logger = xglog.WithComponent("main")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Str("event", "startup.check_failed").Msg("startup checks failed")
	}

	lock, err := guard.Acquire(cfg.StorageRoot)
	if err != nil {
		if errors.Is(err, guard.ErrAlreadyRunning) {
			logger.Fatal().Err(err).Msg("another wavy-storage instance already owns this storage root")
		}
		logger.Fatal().Err(err).Msg("failed to acquire single-instance guard")
	}
	defer lock.Release()

	certPath, keyPath, err := wavytls.EnsureCertificates(wavytls.Config{
		CertPath: cfg.ServerCert,
		KeyPath:  cfg.ServerKey,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure TLS certificates")
	}

	storageMgr, err := storage.New(cfg.StorageRoot)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage layout manager")
	}

	recoveryStore, err := index.OpenStore(filepath.Join(cfg.StorageRoot, ".recovery"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open recovery store")
	}
	defer recoveryStore.Close()

	ownerIndex := index.New()
	recovered, err := recoveryStore.LoadAll()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load recovery store")
	}
	if err := ownerIndex.Bootstrap(recovered); err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap owner/audio index")
	}
	logger.Info().Int("owners", ownerIndex.OwnerCount()).Int("audios", ownerIndex.RelationCount()).Msg("owner/audio index bootstrapped from recovery store")

	pipeline := &ingest.Pipeline{
		TempRoot:         cfg.TempRoot,
		Storage:          storageMgr,
		Index:            ownerIndex,
		RecoveryStore:    recoveryStore,
		UploadLimitBytes: cfg.UploadLimitBytes(),
	}

	server := wavyhttp.NewWavyServer(ownerIndex, storageMgr, pipeline, int64(cfg.DownloadConcurrency))

	healthMgr := health.NewManager(version.Version)
	healthMgr.RegisterChecker(health.NewStorageRootChecker("storage_root", cfg.StorageRoot))
	healthMgr.RegisterChecker(health.NewStorageRootChecker("temp_root", cfg.TempRoot))
	healthMgr.RegisterChecker(health.NewDiskSpaceChecker(cfg.StorageRoot, 1<<30, 256<<20))
	healthMgr.RegisterChecker(health.NewIndexChecker(ownerIndex.Ready))

	router := wavyhttp.NewRouter(server, healthMgr, wavyhttp.RouterConfig{
		Stack: middleware.StackConfig{
			EnableCORS:            true,
			AllowedOrigins:        []string{"*"},
			EnableSecurityHeaders: true,
			EnableMetrics:         true,
			EnableLogging:         true,
			EnableRateLimit:       true,
			RateLimitEnabled:      true,
			RateLimitGlobalRPS:    100,
			RateLimitBurst:        200,
		},
		UploadRateLimit: 20,
	})

	tlsCert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load TLS certificate pair")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		TLSConfig: &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{tlsCert},
		},
	}

	go func() {
		logger.Info().Str("event", "startup").Str("addr", cfg.ListenAddr).Str("version", version.Version).Msg("starting wavy-storage")
		if err := srv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownGraceSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown did not complete within grace period")
	}

	logger.Info().Msg("server exiting")
}
