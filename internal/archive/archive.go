// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package archive implements the Wavy archive codec: a streaming TAR reader
// over a GZIP filter, with per-entry Zstandard single-frame decompression
// for entries carrying the compressed-segment marker.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedMarker suffixes a tar entry name whose payload is a single-frame
// Zstandard stream wrapping the logical file named by the entry path with
// the marker stripped.
const CompressedMarker = ".zst"

// Entry describes one extracted file relative to an extract root.
type Entry struct {
	// Path is the logical, marker-stripped relative path of the file as it
	// should appear once placed into the owner/audio tree.
	Path string
	// AbsPath is the absolute path of the extracted (and, if necessary,
	// decompressed) file under the temp extract directory.
	AbsPath string
	// Size is the final, decompressed size in bytes.
	Size int64
}

// Extract reads the GZIP-wrapped TAR at archivePath and writes each entry
// under destDir, decompressing any entry whose name ends with
// CompressedMarker. It returns the logical entries written. On any error the
// caller is responsible for removing destDir; Extract does not clean up
// partial output itself so that the caller can decide whether partial
// progress is useful to inspect.
func Extract(archivePath, destDir string) ([]Entry, error) {
	f, err := os.Open(archivePath) // #nosec G304 -- archivePath is a server-managed temp path
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("archive: malformed gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	var entries []Entry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, fmt.Errorf("archive: malformed tar header: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		entry, err := writeEntry(tr, destDir, hdr)
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func writeEntry(r io.Reader, destDir string, hdr *tar.Header) (Entry, error) {
	relPath := filepath.Clean(hdr.Name)
	compressed := strings.HasSuffix(relPath, CompressedMarker)
	logicalRel := strings.TrimSuffix(relPath, CompressedMarker)

	rawDst := filepath.Join(destDir, relPath)
	if err := os.MkdirAll(filepath.Dir(rawDst), 0o750); err != nil {
		return Entry{}, fmt.Errorf("archive: mkdir for %s: %w", relPath, err)
	}

	rawFile, err := os.OpenFile(rawDst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640) // #nosec G304
	if err != nil {
		return Entry{}, fmt.Errorf("archive: create %s: %w", relPath, err)
	}
	if _, err := io.Copy(rawFile, r); err != nil {
		rawFile.Close()
		return Entry{}, fmt.Errorf("archive: write %s: %w", relPath, err)
	}
	if err := rawFile.Close(); err != nil {
		return Entry{}, fmt.Errorf("archive: close %s: %w", relPath, err)
	}

	if !compressed {
		info, err := os.Stat(rawDst)
		if err != nil {
			return Entry{}, fmt.Errorf("archive: stat %s: %w", relPath, err)
		}
		return Entry{Path: logicalRel, AbsPath: rawDst, Size: info.Size()}, nil
	}

	logicalDst := filepath.Join(destDir, logicalRel)
	size, err := decompressZstd(rawDst, logicalDst)
	_ = os.Remove(rawDst)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Path: logicalRel, AbsPath: logicalDst, Size: size}, nil
}

// decompressZstd decompresses a Zstandard stream at src into dst. It relies
// on the decoder to fail on a truncated or corrupt frame; it does not yet
// reject a frame that omits its content-size field (TODO: parse the frame
// header with zstd.Header.Decode and require HasFCS before decoding, per
// the unknown-content-size edge case).
func decompressZstd(src, dst string) (int64, error) {
	in, err := os.Open(src) // #nosec G304
	if err != nil {
		return 0, fmt.Errorf("archive: open compressed entry: %w", err)
	}
	defer in.Close()

	dec, err := zstd.NewReader(in, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return 0, fmt.Errorf("archive: init zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640) // #nosec G304
	if err != nil {
		return 0, fmt.Errorf("archive: create decompressed entry: %w", err)
	}

	n, err := io.Copy(out, dec)
	closeErr := out.Close()
	if err != nil {
		return 0, fmt.Errorf("archive: zstd frame decode failed (corrupt or truncated frame): %w", err)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("archive: close decompressed entry: %w", closeErr)
	}

	return n, nil
}
