// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStream_SendsFullBodyInChunks(t *testing.T) {
	srv, root := newTestWavyServer(t)

	dir := filepath.Join(root, "alice", "audio-1")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	payload := strings.Repeat("x", streamChunkSize+1024) // spans more than one chunk write
	if err := os.WriteFile(filepath.Join(dir, "track.mp4"), []byte(payload), 0o640); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodGet, "/stream/alice/audio-1/track.mp4", nil)
	r = withURLParams(r, map[string]string{"owner": "alice", "audio": "audio-1", "filename": "track.mp4"})
	w := httptest.NewRecorder()

	srv.Stream(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/octet-stream" {
		t.Errorf("unexpected content type: %q", w.Header().Get("Content-Type"))
	}
	if w.Body.Len() != len(payload) {
		t.Errorf("expected %d bytes streamed, got %d", len(payload), w.Body.Len())
	}
}

func TestStream_MissingFileReturns404(t *testing.T) {
	srv, _ := newTestWavyServer(t)

	r := httptest.NewRequest(http.MethodGet, "/stream/alice/audio-1/missing.mp4", nil)
	r = withURLParams(r, map[string]string{"owner": "alice", "audio": "audio-1", "filename": "missing.mp4"})
	w := httptest.NewRecorder()

	srv.Stream(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestStream_RespectsDownloadConcurrencyLimit(t *testing.T) {
	srv, root := newTestWavyServer(t)
	// Drain the semaphore to simulate every download slot being busy.
	if err := srv.DownloadSem.Acquire(context.Background(), 4); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer srv.DownloadSem.Release(4)

	dir := filepath.Join(root, "alice", "audio-1")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "track.mp4"), []byte("data"), 0o640); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodGet, "/stream/alice/audio-1/track.mp4", nil)
	r = withURLParams(r, map[string]string{"owner": "alice", "audio": "audio-1", "filename": "track.mp4"})
	w := httptest.NewRecorder()

	srv.Stream(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when download slots are exhausted, got %d", w.Code)
	}
}
