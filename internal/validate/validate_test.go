// SPDX-License-Identifier: MIT

package validate

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileOwnerMarker(t *testing.T) {
	if got := File("alice.owner", "/irrelevant"); got != OwnerMarker {
		t.Errorf("File(owner marker) = %v, want OwnerMarker", got)
	}
	if got := OwnerNickname("alice.owner"); got != "alice" {
		t.Errorf("OwnerNickname() = %q, want alice", got)
	}
}

func TestFilePlaylist(t *testing.T) {
	good := writeTemp(t, "index.m3u8", []byte("#EXTM3U\n#EXT-X-VERSION:3\n"))
	if got := File("index.m3u8", good); got != Accept {
		t.Errorf("valid playlist: File() = %v, want Accept", got)
	}

	bad := writeTemp(t, "index.m3u8", []byte("#EXT-X-VERSION:3\n"))
	if got := File("index.m3u8", bad); got != Reject {
		t.Errorf("playlist missing header: File() = %v, want Reject", got)
	}
}

func TestFileTransportStream(t *testing.T) {
	good := writeTemp(t, "seg.ts", []byte{0x47, 0x00, 0x00, 0x00})
	if got := File("seg.ts", good); got != Accept {
		t.Errorf("valid ts: File() = %v, want Accept", got)
	}

	bad := writeTemp(t, "seg.ts", []byte{0x00, 0x00})
	if got := File("seg.ts", bad); got != Reject {
		t.Errorf("bad sync byte: File() = %v, want Reject", got)
	}
}

func TestFileFMP4SegmentIsPermissive(t *testing.T) {
	anything := writeTemp(t, "hls_flac_0.m4s", []byte{0x01, 0x02})
	if got := File("hls_flac_0.m4s", anything); got != Accept {
		t.Errorf("File(.m4s) = %v, want Accept (permissive)", got)
	}
}

func TestFileInitSegmentTrustedWithoutCheck(t *testing.T) {
	anything := writeTemp(t, "init.mp4", []byte{0xDE, 0xAD})
	if got := File("init.mp4", anything); got != Accept {
		t.Errorf("File(.mp4) = %v, want Accept", got)
	}
}

func TestFileTOML(t *testing.T) {
	good := writeTemp(t, "metadata.toml", []byte(`path = "alice/song.flac"`+"\n"))
	if got := File("metadata.toml", good); got != Accept {
		t.Errorf("valid toml: File() = %v, want Accept", got)
	}

	emptyPath := writeTemp(t, "metadata.toml", []byte(`path = ""`+"\n"))
	if got := File("metadata.toml", emptyPath); got != Reject {
		t.Errorf("empty path field: File() = %v, want Reject", got)
	}

	malformed := writeTemp(t, "metadata.toml", []byte("not = [valid"))
	if got := File("metadata.toml", malformed); got != Reject {
		t.Errorf("malformed toml: File() = %v, want Reject", got)
	}
}

func TestFileUnknownExtensionDropped(t *testing.T) {
	p := writeTemp(t, "notes.txt", []byte("hello"))
	if got := File("notes.txt", p); got != Unknown {
		t.Errorf("File(unknown ext) = %v, want Unknown", got)
	}
}
