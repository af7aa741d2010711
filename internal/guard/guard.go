// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package guard implements the single-instance rendezvous that prevents two
// server processes from sharing a storage root: a fixed Unix domain socket
// path is bound at startup, and a second process binding the same path
// fails immediately with EADDRINUSE.
package guard

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"
)

// ErrAlreadyRunning is returned by Acquire when another process already
// holds the rendezvous for this storage root.
var ErrAlreadyRunning = errors.New("guard: another instance is already running against this storage root")

// Lock holds an acquired single-instance rendezvous. Release must be called
// exactly once, on every exit path including a recovered panic.
type Lock struct {
	listener net.Listener
	path     string
}

// SocketPath returns the canonical rendezvous socket path for a given
// storage root.
func SocketPath(storageRoot string) string {
	return filepath.Join(storageRoot, ".wavy.lock.sock")
}

// Acquire binds the rendezvous socket derived from storageRoot. If another
// process already holds it, ErrAlreadyRunning is returned.
func Acquire(storageRoot string) (*Lock, error) {
	path := SocketPath(storageRoot)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("guard: prepare rendezvous directory: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		// A stale socket file from a crashed prior instance leaves an
		// unconnectable listener behind; probe it before giving up.
		if isStaleSocket(path) {
			_ = os.Remove(path)
			ln, err = net.Listen("unix", path)
		}
		if err != nil {
			if isAddrInUse(err) {
				return nil, ErrAlreadyRunning
			}
			return nil, fmt.Errorf("guard: bind rendezvous %s: %w", path, err)
		}
	}

	return &Lock{listener: ln, path: path}, nil
}

// Release closes the rendezvous listener and removes the socket file. Safe
// to call more than once.
func (l *Lock) Release() {
	if l == nil || l.listener == nil {
		return
	}
	_ = l.listener.Close()
	_ = os.Remove(l.path)
	l.listener = nil
}

// isAddrInUse reports whether err is specifically EADDRINUSE from the listen
// syscall, as opposed to some other listen-time failure (e.g. a permission
// error) that should not be mislabeled as another instance already running.
func isAddrInUse(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) || opErr.Op != "listen" {
		return false
	}
	var errno syscall.Errno
	return errors.As(opErr.Err, &errno) && errno == syscall.EADDRINUSE
}

// isStaleSocket reports whether path names a socket file nothing is
// listening on, distinguishing a crashed-instance leftover from a live
// rendezvous.
func isStaleSocket(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.Mode()&os.ModeSocket == 0 {
		return false
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return true
	}
	_ = conn.Close()
	return false
}
