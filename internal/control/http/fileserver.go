// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"
)

// serveSecureFileContent serves realPath with ETag/Cache-Control caching
// semantics. The caller is responsible for traversal confinement: Download
// resolves realPath via storage.ResolveServingPath, which in turn calls
// fsutil.ConfineRelPath before this function ever sees a path.
func serveSecureFileContent(w http.ResponseWriter, r *http.Request, realPath, requestPath string, logger zerolog.Logger, metrics FileMetrics) error {
	f, err := os.Open(realPath) // #nosec G304 -- realPath confined by the caller
	if err != nil {
		return fmt.Errorf("open resolved path: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Str("path", realPath).Msg("failed to close file")
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat opened file: %w", err)
	}

	etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		metrics.CacheHit()
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	setSecureFileContentType(w, info.Name())

	logger.Info().Str("event", "file_req.allowed").Str("path", requestPath).Msg("serving file")
	metrics.Allowed()
	metrics.CacheMiss()
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}

func setSecureFileContentType(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", downloadContentType(filename))
}
