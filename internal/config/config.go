// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the Wavy storage server's runtime configuration from
// environment variables, an optional TOML file, and compiled-in defaults, in
// that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the full set of knobs the storage server reads at startup.
type Config struct {
	ListenAddr        string `toml:"listen_addr"`
	ServerCert        string `toml:"server_cert"`
	ServerKey         string `toml:"server_key"`
	StorageRoot       string `toml:"storage_root"`
	TempRoot          string `toml:"temp_root"`
	UploadLimitMiB    int64  `toml:"upload_limit_mib"`
	RequestTimeoutSec int    `toml:"request_timeout_sec"`
	ShutdownGraceSec  int    `toml:"shutdown_grace_sec"`
	LogLevel          string `toml:"log_level"`
	DownloadConcurrency int  `toml:"download_concurrency"`
}

// Defaults returns the compiled-in baseline configuration.
func Defaults() Config {
	return Config{
		ListenAddr:          ":8443",
		ServerCert:          "certs/wavy.crt",
		ServerKey:           "certs/wavy.key",
		StorageRoot:         "./data/storage",
		TempRoot:            "./data/tmp",
		UploadLimitMiB:      512,
		RequestTimeoutSec:   30,
		ShutdownGraceSec:    15,
		LogLevel:            "info",
		DownloadConcurrency: 64,
	}
}

// envPrefix is prepended to every recognized environment variable name.
const envPrefix = "WAVY_"

// Load resolves configuration with precedence ENV > File > Defaults.
// filePath may be empty, in which case only ENV and defaults apply.
func Load(filePath string) (Config, error) {
	cfg := Defaults()

	if filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			var fileCfg Config
			if _, err := toml.DecodeFile(filePath, &fileCfg); err != nil {
				return Config{}, fmt.Errorf("config: parsing %s: %w", filePath, err)
			}
			mergeNonZero(&cfg, fileCfg)
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: stat %s: %w", filePath, err)
		}
	}

	applyEnv(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// mergeNonZero overlays non-zero-valued fields from src onto dst.
func mergeNonZero(dst *Config, src Config) {
	if src.ListenAddr != "" {
		dst.ListenAddr = src.ListenAddr
	}
	if src.ServerCert != "" {
		dst.ServerCert = src.ServerCert
	}
	if src.ServerKey != "" {
		dst.ServerKey = src.ServerKey
	}
	if src.StorageRoot != "" {
		dst.StorageRoot = src.StorageRoot
	}
	if src.TempRoot != "" {
		dst.TempRoot = src.TempRoot
	}
	if src.UploadLimitMiB != 0 {
		dst.UploadLimitMiB = src.UploadLimitMiB
	}
	if src.RequestTimeoutSec != 0 {
		dst.RequestTimeoutSec = src.RequestTimeoutSec
	}
	if src.ShutdownGraceSec != 0 {
		dst.ShutdownGraceSec = src.ShutdownGraceSec
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.DownloadConcurrency != 0 {
		dst.DownloadConcurrency = src.DownloadConcurrency
	}
}

func applyEnv(cfg *Config) {
	if v := ParseString("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := ParseString("TLS_CERT"); v != "" {
		cfg.ServerCert = v
	}
	if v := ParseString("TLS_KEY"); v != "" {
		cfg.ServerKey = v
	}
	if v := ParseString("STORAGE_ROOT"); v != "" {
		cfg.StorageRoot = v
	}
	if v := ParseString("TEMP_ROOT"); v != "" {
		cfg.TempRoot = v
	}
	if v, ok := ParseInt64("UPLOAD_LIMIT_MIB"); ok {
		cfg.UploadLimitMiB = v
	}
	if v, ok := ParseInt("REQUEST_TIMEOUT_SEC"); ok {
		cfg.RequestTimeoutSec = v
	}
	if v, ok := ParseInt("SHUTDOWN_GRACE_SEC"); ok {
		cfg.ShutdownGraceSec = v
	}
	if v := ParseString("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := ParseInt("DOWNLOAD_CONCURRENCY"); ok {
		cfg.DownloadConcurrency = v
	}
}

// ParseString reads WAVY_<name> from the environment, trimmed of whitespace.
func ParseString(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

// ParseInt reads WAVY_<name> as an int, returning ok=false if unset or unparsable.
func ParseInt(name string) (int, bool) {
	raw := ParseString(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseInt64 reads WAVY_<name> as an int64, returning ok=false if unset or unparsable.
func ParseInt64(name string) (int64, bool) {
	raw := ParseString(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseBool reads WAVY_<name> as a bool, returning def if unset or unparsable.
func ParseBool(name string, def bool) bool {
	raw := ParseString(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func validate(cfg Config) error {
	if cfg.StorageRoot == "" {
		return fmt.Errorf("config: storage_root must not be empty")
	}
	if cfg.TempRoot == "" {
		return fmt.Errorf("config: temp_root must not be empty")
	}
	if cfg.UploadLimitMiB <= 0 {
		return fmt.Errorf("config: upload_limit_mib must be positive")
	}
	if cfg.RequestTimeoutSec <= 0 {
		return fmt.Errorf("config: request_timeout_sec must be positive")
	}
	if cfg.ShutdownGraceSec <= 0 {
		return fmt.Errorf("config: shutdown_grace_sec must be positive")
	}
	return nil
}

// UploadLimitBytes converts UploadLimitMiB to a byte count.
func (c Config) UploadLimitBytes() int64 {
	return c.UploadLimitMiB * 1024 * 1024
}
