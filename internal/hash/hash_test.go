// SPDX-License-Identifier: MIT

package hash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileAndBytesAgree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.tar.gz")
	content := []byte("wavy archive bytes")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := File(path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	fromBytes := Bytes(content)

	if fromFile != fromBytes {
		t.Errorf("File() = %q, Bytes() = %q, want equal", fromFile, fromBytes)
	}
	if !Valid(fromFile) {
		t.Errorf("digest %q should be valid", fromFile)
	}
}

func TestValidRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"short",
		"ZZ" + string(make([]byte, 62)),
		"not-hex-characters-----------------------------------------000",
	}
	for _, c := range cases {
		if Valid(c) {
			t.Errorf("Valid(%q) = true, want false", c)
		}
	}
}
