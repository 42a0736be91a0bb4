// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInLayout(t *testing.T) {
	home := t.TempDir()
	b := ResolveIn(home)
	assert.Equal(t, filepath.Join(home, "config.json"), b.ConfigFile)
	assert.Equal(t, filepath.Join(home, "logs", "daemon.log"), b.LogFile)
	assert.Equal(t, filepath.Join(home, "hooks", "claude-hooks.sh"), b.ClaudeHookScript)
}

func TestEnsureDirsCreatesTree(t *testing.T) {
	home := filepath.Join(t.TempDir(), "th")
	b := ResolveIn(home)
	require.NoError(t, b.EnsureDirs())
	for _, d := range []string{b.Home, b.LogDir, b.SessionsDir, b.UploadsDir, b.HooksDir} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestPidFileRoundTrip(t *testing.T) {
	b := ResolveIn(t.TempDir())
	require.NoError(t, os.MkdirAll(b.Home, 0700))
	require.NoError(t, b.WritePidFile())
	assert.Equal(t, os.Getpid(), b.ReadPidFile())
	require.NoError(t, b.RemovePidFile())
	assert.Equal(t, 0, b.ReadPidFile())
}

func TestFileLockStealsFromDeadPid(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "x.lock")
	require.NoError(t, os.WriteFile(lockPath, []byte("999999999"), 0600))

	l := NewFileLock(lockPath)
	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())
}

func TestFileLockRefusesLivePid(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "x.lock")
	// Use init (pid 1) as a stand-in for "definitely alive" without
	// depending on this test's own pid.
	require.NoError(t, os.WriteFile(lockPath, []byte("1"), 0600))

	l := NewFileLock(lockPath)
	err := l.Acquire()
	assert.Error(t, err)
}

func TestTokenFingerprintDeterministic(t *testing.T) {
	a := TokenFingerprint("123:abc")
	b := TokenFingerprint("123:abc")
	c := TokenFingerprint("123:xyz")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
