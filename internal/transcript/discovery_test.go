// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaudeProjectDirEncoding(t *testing.T) {
	dir := ClaudeProjectDir("/home/alice", "/Users/alice/src/groups.io")
	assert.Equal(t, "/home/alice/.claude/projects/-Users-alice-src-groups-io", dir)
}

func TestPIProjectDirEncoding(t *testing.T) {
	dir := PIProjectDir("/home/alice", "/Users/alice/src/app")
	assert.Equal(t, "/home/alice/.pi/agent/sessions/--Users-alice-src-app--", dir)
}

func TestKimiWirePath(t *testing.T) {
	p := KimiWirePath("/home/alice", "/Users/alice/src/app", "sess-1")
	assert.Contains(t, p, "/.kimi/sessions/")
	assert.Contains(t, p, "sess-1/wire.jsonl")
}

func TestFindCodexTranscriptByIDSubstring(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".codex", "sessions", "2026", "01", "15")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rollout-019c56ac-417b.jsonl"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rollout-other-id.jsonl"), []byte("{}"), 0644))

	path, err := FindCodexTranscript(home, "019c56ac")
	require.NoError(t, err)
	assert.Contains(t, path, "019c56ac")
}

func TestFindCodexTranscriptNewestWhenNoID(t *testing.T) {
	home := t.TempDir()
	dirOld := filepath.Join(home, ".codex", "sessions", "2026", "01", "01")
	dirNew := filepath.Join(home, ".codex", "sessions", "2026", "02", "01")
	require.NoError(t, os.MkdirAll(dirOld, 0755))
	require.NoError(t, os.MkdirAll(dirNew, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dirOld, "a.jsonl"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dirNew, "b.jsonl"), []byte("{}"), 0644))

	path, err := FindCodexTranscript(home, "")
	require.NoError(t, err)
	assert.Contains(t, path, "2026/02/01")
}

func TestListJSONLFilesMissingDir(t *testing.T) {
	files, err := ListJSONLFiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, files)
}
