// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func TestWatchLogLevel_StopsOnCancel_NoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`log_level = "info"`), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	levels := make(chan string, 1)
	if err := WatchLogLevel(ctx, path, zerolog.Nop(), func(level string) {
		levels <- level
	}); err != nil {
		t.Fatalf("WatchLogLevel() error = %v", err)
	}

	if err := os.WriteFile(path, []byte(`log_level = "debug"`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case level := <-levels:
		if level != "debug" {
			t.Errorf("onChange level = %q, want debug", level)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onChange was not invoked after config file write")
	}

	cancel()
	// Give the watcher goroutine a moment to observe ctx.Done() and return
	// before goleak.VerifyNone checks for stragglers.
	time.Sleep(50 * time.Millisecond)
}

func TestWatchLogLevel_EmptyPathIsNoop(t *testing.T) {
	if err := WatchLogLevel(context.Background(), "", zerolog.Nop(), func(string) {
		t.Error("onChange must not be called when filePath is empty")
	}); err != nil {
		t.Fatalf("WatchLogLevel() error = %v", err)
	}
}
