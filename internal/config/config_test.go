// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.StorageRoot == "" || cfg.TempRoot == "" {
		t.Fatal("defaults must set storage_root and temp_root")
	}
	if err := validate(cfg); err != nil {
		t.Fatalf("defaults must validate cleanly: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
storage_root = "/srv/wavy/storage"
temp_root = "/srv/wavy/tmp"
upload_limit_mib = 1024
log_level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StorageRoot != "/srv/wavy/storage" {
		t.Errorf("StorageRoot = %q", cfg.StorageRoot)
	}
	if cfg.UploadLimitMiB != 1024 {
		t.Errorf("UploadLimitMiB = %d, want 1024", cfg.UploadLimitMiB)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Untouched fields fall back to defaults.
	if cfg.RequestTimeoutSec != Defaults().RequestTimeoutSec {
		t.Errorf("RequestTimeoutSec = %d, want default", cfg.RequestTimeoutSec)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`log_level = "debug"`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WAVY_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (env must win over file)", cfg.LogLevel)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StorageRoot != Defaults().StorageRoot {
		t.Errorf("expected defaults when file is absent")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.UploadLimitMiB = 0
	if err := validate(cfg); err == nil {
		t.Fatal("expected error for non-positive upload_limit_mib")
	}
}

func TestUploadLimitBytes(t *testing.T) {
	cfg := Config{UploadLimitMiB: 2}
	if got, want := cfg.UploadLimitBytes(), int64(2*1024*1024); got != want {
		t.Errorf("UploadLimitBytes() = %d, want %d", got, want)
	}
}
