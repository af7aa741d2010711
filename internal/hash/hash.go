// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package hash computes the content-addressed digest used as an archive's
// deletion key.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DigestHexLen is the length of a lowercase hex SHA-256 digest.
const DigestHexLen = 64

// File computes the lowercase hex SHA-256 digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a server-managed temp archive path
	if err != nil {
		return "", fmt.Errorf("hash: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes computes the lowercase hex SHA-256 digest of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Valid reports whether digest looks like a well-formed lowercase hex
// SHA-256 digest.
func Valid(digest string) bool {
	if len(digest) != DigestHexLen {
		return false
	}
	for _, c := range digest {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
