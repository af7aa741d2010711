// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// testMetrics provides a test implementation of FileMetrics
type testMetrics struct {
	denied  map[string]int
	allowed int
	hit     int
	miss    int
}

func newTestMetrics() *testMetrics {
	return &testMetrics{
		denied: make(map[string]int),
	}
}

func (m *testMetrics) Denied(reason string) {
	m.denied[reason]++
}

func (m *testMetrics) Allowed() {
	m.allowed++
}

func (m *testMetrics) CacheHit() {
	m.hit++
}

func (m *testMetrics) CacheMiss() {
	m.miss++
}

// Test that serveSecureFileContent sets an ETag/Cache-Control header and
// serves the body on a first request.
func TestServeSecureFileContent_ServesAndSetsETag(t *testing.T) {
	tmpDir := t.TempDir()
	metrics := newTestMetrics()

	playlistPath := filepath.Join(tmpDir, "hls_mp3_64.m3u8")
	content := []byte("#EXTM3U\ntest")
	if err := os.WriteFile(playlistPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodGet, "/hls_mp3_64.m3u8", nil)
	w := httptest.NewRecorder()

	if err := serveSecureFileContent(w, r, playlistPath, r.URL.Path, zerolog.Nop(), metrics); err != nil {
		t.Fatalf("serveSecureFileContent() error = %v", err)
	}

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("Expected ETag header")
	}
	if w.Header().Get("Content-Type") != "application/vnd.apple.mpegurl" {
		t.Errorf("unexpected content type: %q", w.Header().Get("Content-Type"))
	}
	if metrics.allowed != 1 {
		t.Errorf("Expected allowed metric")
	}
	if metrics.miss != 1 {
		t.Errorf("Expected cache miss")
	}
}

// Test that a matching If-None-Match returns 304 and records a cache hit.
func TestServeSecureFileContent_ETagCaching(t *testing.T) {
	tmpDir := t.TempDir()
	metrics := newTestMetrics()

	playlistPath := filepath.Join(tmpDir, "hls_mp3_64.m3u8")
	if err := os.WriteFile(playlistPath, []byte("#EXTM3U"), 0644); err != nil {
		t.Fatal(err)
	}

	req1 := httptest.NewRequest(http.MethodGet, "/hls_mp3_64.m3u8", nil)
	w1 := httptest.NewRecorder()
	if err := serveSecureFileContent(w1, req1, playlistPath, req1.URL.Path, zerolog.Nop(), metrics); err != nil {
		t.Fatalf("serveSecureFileContent() error = %v", err)
	}
	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatal("Expected ETag header")
	}

	req2 := httptest.NewRequest(http.MethodGet, "/hls_mp3_64.m3u8", nil)
	req2.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	if err := serveSecureFileContent(w2, req2, playlistPath, req2.URL.Path, zerolog.Nop(), metrics); err != nil {
		t.Fatalf("serveSecureFileContent() error = %v", err)
	}

	if w2.Code != http.StatusNotModified {
		t.Errorf("Expected 304, got %d", w2.Code)
	}
	if metrics.hit != 1 {
		t.Error("Expected cache hit")
	}
}

// Test that serveSecureFileContent surfaces an error for a missing file
// instead of panicking or serving a zero-length body.
func TestServeSecureFileContent_MissingFileReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	metrics := newTestMetrics()

	r := httptest.NewRequest(http.MethodGet, "/missing.m3u8", nil)
	w := httptest.NewRecorder()

	err := serveSecureFileContent(w, r, filepath.Join(tmpDir, "missing.m3u8"), r.URL.Path, zerolog.Nop(), metrics)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestSetSecureFileContentType(t *testing.T) {
	w := httptest.NewRecorder()
	setSecureFileContentType(w, "segment0.ts")
	if got := w.Header().Get("Content-Type"); got != "video/mp2t" {
		t.Errorf("Content-Type = %q, want video/mp2t", got)
	}
}
