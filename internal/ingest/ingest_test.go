// SPDX-License-Identifier: MIT

package ingest

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/wavy-storage/internal/index"
	"github.com/ManuGH/wavy-storage/internal/storage"
)

func buildArchive(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o640, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	tempRoot := t.TempDir()
	storageRoot := t.TempDir()
	mgr, err := storage.New(storageRoot)
	if err != nil {
		t.Fatal(err)
	}
	return &Pipeline{
		TempRoot:         tempRoot,
		Storage:          mgr,
		Index:            index.New(),
		UploadLimitBytes: 10 * 1024 * 1024,
	}
}

func TestIngestHappyPathLossyUpload(t *testing.T) {
	p := newPipeline(t)
	files := map[string][]byte{
		"alice.owner":     {},
		"metadata.toml":   []byte(`path = "alice/song.mp3"`),
		"index.m3u8":      []byte("#EXTM3U\n"),
		"hls_mp3_64.m3u8": []byte("#EXTM3U\n#EXTINF:10,\nhls_mp3_64_0.ts\n"),
		"hls_mp3_64_0.ts": {0x47, 0x00},
		"hls_mp3_64_1.ts": {0x47, 0x01},
	}
	archiveBytes := buildArchive(t, files)

	result, err := p.Ingest(bytes.NewReader(archiveBytes))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.Owner != "alice" {
		t.Errorf("Owner = %q, want alice", result.Owner)
	}
	if len(result.SHA256) != 64 {
		t.Errorf("SHA256 length = %d, want 64", len(result.SHA256))
	}
	// Owner marker is never placed; 5 remaining files should be accepted.
	if result.FilesAccepted != 5 {
		t.Errorf("FilesAccepted = %d, want 5", result.FilesAccepted)
	}

	if !p.Index.Has("alice", result.AudioID) {
		t.Error("index should contain the new audio after ingest")
	}

	dir := p.Storage.AudioDir("alice", result.AudioID)
	if _, err := os.Stat(filepath.Join(dir, "hls_mp3_64_0.ts")); err != nil {
		t.Errorf("expected placed segment: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "alice.owner")); !os.IsNotExist(err) {
		t.Error("owner-marker file must never be placed into storage")
	}

	key, err := p.Storage.ReadKey(result.AudioID)
	if err != nil {
		t.Fatalf("ReadKey() error = %v", err)
	}
	if key != result.SHA256 {
		t.Errorf("persisted key = %q, want %q", key, result.SHA256)
	}

	// Temp tree must be fully cleaned up after a successful ingest.
	if _, err := os.Stat(filepath.Join(p.TempRoot, result.AudioID)); !os.IsNotExist(err) {
		t.Error("temp extract dir should be removed after ingest")
	}
}

func TestIngestMissingOwnerMarkerFails(t *testing.T) {
	p := newPipeline(t)
	files := map[string][]byte{
		"index.m3u8":      []byte("#EXTM3U\n"),
		"hls_mp3_64_0.ts": {0x47},
	}
	archiveBytes := buildArchive(t, files)

	if _, err := p.Ingest(bytes.NewReader(archiveBytes)); err == nil {
		t.Fatal("expected error when no owner-marker file is present")
	}
}

func TestIngestAllFilesInvalidFails(t *testing.T) {
	p := newPipeline(t)
	files := map[string][]byte{
		"alice.owner": {},
		"index.m3u8":  []byte("missing header"),
	}
	archiveBytes := buildArchive(t, files)

	if _, err := p.Ingest(bytes.NewReader(archiveBytes)); err == nil {
		t.Fatal("expected error when zero valid files remain after validation")
	}

	entries, _ := os.ReadDir(p.TempRoot)
	if len(entries) != 0 {
		t.Errorf("temp root should be empty after a failed ingest, found %d entries", len(entries))
	}
}

func TestIngestOversizeRejected(t *testing.T) {
	p := newPipeline(t)
	p.UploadLimitBytes = 8

	files := map[string][]byte{"alice.owner": {}, "index.m3u8": []byte("#EXTM3U\n#EXTM3U\n#EXTM3U\n")}
	archiveBytes := buildArchive(t, files)

	if _, err := p.Ingest(bytes.NewReader(archiveBytes)); err == nil {
		t.Fatal("expected oversize rejection")
	}
}

func TestIngestEmptyBodyFails(t *testing.T) {
	p := newPipeline(t)
	if _, err := p.Ingest(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected error for empty request body")
	}
}
