// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchLogLevel watches filePath for writes and invokes onChange with the
// newly loaded log level whenever the file changes. It runs until ctx is
// canceled. Only the log_level field is considered actionable for a hot
// reload; every other knob requires a process restart.
func WatchLogLevel(ctx context.Context, filePath string, logger zerolog.Logger, onChange func(level string)) error {
	if filePath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(filePath); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(filePath)
				if err != nil {
					logger.Warn().Err(err).Str("file", filePath).Msg("config reload failed, keeping previous level")
					continue
				}
				logger.Info().Str("level", cfg.LogLevel).Msg("config file changed, reloading log level")
				onChange(cfg.LogLevel)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("config watcher error")
			}
		}
	}()

	return nil
}
