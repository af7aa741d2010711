// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ManuGH/wavy-storage/internal/config"
	"github.com/ManuGH/wavy-storage/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the configured environment before the
// server starts accepting connections: storage/temp roots exist and are
// writable, the listen address parses, and TLS cert/key are a complete,
// readable pair.
func PerformStartupChecks(_ context.Context, cfg config.Config) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkRootDir(logger, "storage_root", cfg.StorageRoot); err != nil {
		return fmt.Errorf("storage root check failed: %w", err)
	}
	if err := checkRootDir(logger, "temp_root", cfg.TempRoot); err != nil {
		return fmt.Errorf("temp root check failed: %w", err)
	}
	if err := checkListenAddr(logger, cfg.ListenAddr); err != nil {
		return fmt.Errorf("listen address check failed: %w", err)
	}
	if err := checkTLSPair(logger, cfg.ServerCert, cfg.ServerKey); err != nil {
		return fmt.Errorf("TLS configuration check failed: %w", err)
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkRootDir(logger zerolog.Logger, name, path string) error {
	if path == "" {
		return fmt.Errorf("%s must not be empty", name)
	}

	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("%s %q could not be created: %w", name, path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %q is not a directory", name, path)
	}

	probe := filepath.Join(path, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("%s %q is not writable: %w", name, path, err)
	}
	_ = os.Remove(probe)

	logger.Info().Str(name, path).Msg("root directory is writable")
	return nil
}

func checkListenAddr(logger zerolog.Logger, addr string) error {
	if addr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, addr)
	}
	logger.Info().Str("addr", addr).Msg("listen address is valid")
	return nil
}

func checkTLSPair(logger zerolog.Logger, certPath, keyPath string) error {
	certExists := fileExists(certPath)
	keyExists := fileExists(keyPath)

	if certExists != keyExists {
		return fmt.Errorf("TLS configuration requires both cert and key to be present (cert=%v key=%v)", certExists, keyExists)
	}
	if !certExists {
		logger.Info().Msg("no TLS cert/key on disk yet; one will be generated at startup")
		return nil
	}

	if err := checkFileReadable(certPath); err != nil {
		return fmt.Errorf("TLS cert unreadable: %w", err)
	}
	if err := checkFileReadable(keyPath); err != nil {
		return fmt.Errorf("TLS key unreadable: %w", err)
	}
	logger.Info().Msg("TLS certificate pair is valid")
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config; verifying readability is expected
	if err != nil {
		return err
	}
	return f.Close()
}
