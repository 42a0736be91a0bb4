// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FileLock is a pid-aware advisory lock backed by a plain file holding the
// owning pid. It is used both for the daemon's own lock file and for the
// Telegram adapter's per-token-fingerprint poller lock (spec §5).
type FileLock struct {
	path string
}

// NewFileLock returns a lock backed by path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Acquire takes the lock. If an existing lock file names a pid that is no
// longer alive, the lock is stolen; otherwise Acquire fails.
func (l *FileLock) Acquire() error {
	if data, err := os.ReadFile(l.path); err == nil {
		if pid, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && pid != os.Getpid() {
			if IsAlive(pid) {
				return fmt.Errorf("lock %s held by live pid %d", l.path, pid)
			}
		}
	}
	return os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())), 0600)
}

// Release removes the lock file if it is still owned by this process.
func (l *FileLock) Release() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if pid, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && pid != os.Getpid() {
		return nil
	}
	err = os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// TokenFingerprint returns a short, stable, non-reversible identifier for a
// channel token, suitable for use as a lock-file name component.
func TokenFingerprint(token string) string {
	h := fnv32a(token)
	return fmt.Sprintf("%08x", h)
}

// fnv32a is a tiny inline FNV-1a so the lock-file naming has no dependency
// on a cryptographic hash (the fingerprint is for collision-avoidance in a
// filename, not for authentication).
func fnv32a(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	hash := uint32(offset32)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= prime32
	}
	return hash
}
