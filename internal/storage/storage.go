// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package storage implements the Storage Layout Manager: it computes
// on-disk paths for owner/audio artifacts, places validated files into the
// tree, and removes them atomically on delete.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"syscall"

	"github.com/ManuGH/wavy-storage/internal/fsutil"
	"github.com/google/renameio/v2"
)

// Manager roots all placement and removal operations under Root.
type Manager struct {
	Root string

	// repeatRemovals counts idempotent no-op removals, readable through
	// RepeatRemovals rather than treated as an error. It is not exported as
	// a Prometheus metric.
	repeatRemovals atomic.Int64
}

// New returns a Manager rooted at root. root is created if it does not
// already exist.
func New(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create root %s: %w", root, err)
	}
	return &Manager{Root: root}, nil
}

// AudioDir returns the path of the directory holding one audio's artifacts,
// without creating it.
func (m *Manager) AudioDir(owner, audio string) string {
	return filepath.Join(m.Root, owner, audio)
}

// KeyPath returns the deletion-key file path for audio.
func (m *Manager) KeyPath(audio string) string {
	return filepath.Join(m.Root, ".keys", audio+".key")
}

// EnsureAudioDir creates the owner/audio directory, failing if it already
// exists — a pre-existing directory signals an audio-id collision, which
// must never be silently overwritten.
func (m *Manager) EnsureAudioDir(owner, audio string) (string, error) {
	dir := m.AudioDir(owner, audio)
	if _, err := os.Stat(dir); err == nil {
		return "", fmt.Errorf("storage: audio directory already exists: %s", dir)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("storage: stat %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("storage: create audio directory %s: %w", dir, err)
	}
	return dir, nil
}

// Place moves srcTempFile into dir under dstName, preferring an atomic
// same-filesystem rename and falling back to copy-then-remove (preserving
// permission bits) on EXDEV.
func Place(srcTempFile, dir, dstName string) error {
	dst := filepath.Join(dir, dstName)

	err := os.Rename(srcTempFile, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("storage: rename %s -> %s: %w", srcTempFile, dst, err)
	}

	return copyThenRemove(srcTempFile, dst)
}

func copyThenRemove(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("storage: stat source %s: %w", src, err)
	}

	in, err := os.Open(src) // #nosec G304 -- src is a server-managed temp path
	if err != nil {
		return fmt.Errorf("storage: open source %s: %w", src, err)
	}
	defer in.Close()

	t, err := renameio.TempFile("", dst)
	if err != nil {
		return fmt.Errorf("storage: create atomic writer for %s: %w", dst, err)
	}
	defer t.Cleanup()

	if _, err := io.Copy(t, in); err != nil {
		return fmt.Errorf("storage: copy %s -> %s: %w", src, dst, err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("storage: finalize %s: %w", dst, err)
	}
	// Best-effort: permission preservation across the copy path is not
	// guaranteed atomic with the copy itself (spec's open question).
	_ = os.Chmod(dst, info.Mode().Perm())
	_ = os.Remove(src)
	return nil
}

// RemoveAudio recursively removes the owner/audio directory and its
// matching key file. It is idempotent: removing a non-existent audio is not
// an error, but is counted once via RepeatRemovals.
func (m *Manager) RemoveAudio(owner, audio string) error {
	dir := m.AudioDir(owner, audio)
	existed := dirExists(dir)

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("storage: remove audio directory %s: %w", dir, err)
	}
	if err := os.Remove(m.KeyPath(audio)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove key file for %s: %w", audio, err)
	}

	if !existed {
		m.repeatRemovals.Add(1)
	}
	return nil
}

// RepeatRemovals reports how many RemoveAudio calls targeted an audio that
// was already absent.
func (m *Manager) RepeatRemovals() int64 {
	return m.repeatRemovals.Load()
}

// PersistKey writes the deletion key for audio, creating .keys/ if needed.
func (m *Manager) PersistKey(audio, digest string) error {
	keysDir := filepath.Join(m.Root, ".keys")
	if err := os.MkdirAll(keysDir, 0o750); err != nil {
		return fmt.Errorf("storage: create keys dir: %w", err)
	}
	return os.WriteFile(m.KeyPath(audio), []byte(digest+"\n"), 0o640)
}

// ReadKey reads and trims the persisted deletion key for audio.
func (m *Manager) ReadKey(audio string) (string, error) {
	data, err := os.ReadFile(m.KeyPath(audio)) // #nosec G304
	if err != nil {
		return "", err
	}
	return trimNewline(data), nil
}

func trimNewline(b []byte) string {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return string(b)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ResolveServingPath resolves a requested filename within an audio
// directory, defending against traversal via fsutil's confinement helpers.
func (m *Manager) ResolveServingPath(owner, audio, filename string) (string, error) {
	dir := m.AudioDir(owner, audio)
	return fsutil.ConfineRelPath(dir, filename)
}

// isCrossDevice reports whether err is the platform's cross-device-link
// error (EXDEV on POSIX), which os.Rename surfaces as a *LinkError wrapping
// a syscall.Errno. Windows has no direct equivalent since os.Rename already
// falls back internally there, so this is a no-op on that GOOS.
func isCrossDevice(err error) bool {
	if runtime.GOOS == "windows" {
		return false
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	errno, ok := linkErr.Err.(syscall.Errno)
	return ok && errno == syscall.EXDEV
}
