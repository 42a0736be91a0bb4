// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package outputpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSafeSessionRefRejectsMetacharacters(t *testing.T) {
	for _, bad := range []string{"abc;rm -rf", "a$(whoami)", "a`id`", "a&b", "a|b", "a\"b", "a'b", "a<b", "a>b"} {
		assert.False(t, IsSafeSessionRef(bad), bad)
	}
	assert.True(t, IsSafeSessionRef("session-123_abc"))
}

func TestRewriteClaudeArgv(t *testing.T) {
	argv := []string{"claude", "--continue", "-p", "do the thing"}
	out, ok := RewriteResumeArgv("claude", argv, "abcd1234")
	require.True(t, ok)
	assert.Equal(t, []string{"claude", "-p", "do the thing", "--resume", "abcd1234"}, out)
}

func TestRewriteClaudeArgvStripsResumeWithValue(t *testing.T) {
	argv := []string{"claude", "--resume", "old-ref", "-p", "continue"}
	out, ok := RewriteResumeArgv("claude", argv, "new-ref")
	require.True(t, ok)
	assert.Equal(t, []string{"claude", "-p", "continue", "--resume", "new-ref"}, out)
}

func TestRewriteCodexArgvSubcommandForm(t *testing.T) {
	argv := []string{"codex", "resume", "old-id", "--json"}
	out, ok := RewriteResumeArgv("codex", argv, "new-id")
	require.True(t, ok)
	assert.Equal(t, []string{"codex", "resume", "new-id"}, out)
}

func TestRewriteCodexArgvExecLast(t *testing.T) {
	argv := []string{"codex", "exec", "--last", "--json", "do it"}
	out, ok := RewriteResumeArgv("codex", argv, "new-id")
	require.True(t, ok)
	assert.Equal(t, []string{"codex", "do it", "resume", "new-id"}, out)
}

func TestRewritePiArgv(t *testing.T) {
	argv := []string{"pi", "--session", "old", "-p", "hi"}
	out, ok := RewriteResumeArgv("pi", argv, "new")
	require.True(t, ok)
	assert.Equal(t, []string{"pi", "-p", "hi", "--session", "new"}, out)
}

func TestRewriteKimiArgv(t *testing.T) {
	argv := []string{"kimi", "-C", "--session", "old"}
	out, ok := RewriteResumeArgv("kimi", argv, "new")
	require.True(t, ok)
	assert.Equal(t, []string{"kimi", "--session", "new"}, out)
}

// Scenario 3 (§8): restart argv rewrite preserves unrelated flags, drops
// the old ref, and ends with the new one.
func TestRewriteResumeArgvRestartScenario(t *testing.T) {
	argv := []string{"claude", "--dangerously-skip-permissions", "--resume", "old-id", "--append-system-prompt", "AGENTS.md"}
	out, ok := RewriteResumeArgv("claude", argv, "new-id")
	require.True(t, ok)
	assert.Contains(t, out, "--dangerously-skip-permissions")
	assert.Contains(t, out, "--append-system-prompt")
	assert.Contains(t, out, "AGENTS.md")
	assert.NotContains(t, out, "old-id")
	require.Len(t, out, 6)
	assert.Equal(t, []string{"--resume", "new-id"}, out[len(out)-2:])
}

func TestRewriteResumeArgvRejectsUnsafeRef(t *testing.T) {
	_, ok := RewriteResumeArgv("claude", []string{"claude"}, "bad;ref")
	assert.False(t, ok)
}

// TestRewriteResumeArgvIsIdempotent implements P6: rewriting a
// previously-rewritten argv a second time with the same ref is a fixed
// point (re-running resume doesn't pile up duplicate --resume flags).
func TestRewriteResumeArgvIsIdempotent(t *testing.T) {
	for _, tool := range []string{"claude", "codex", "pi", "kimi"} {
		argv := []string{tool}
		once, ok := RewriteResumeArgv(tool, argv, "ref-1")
		require.True(t, ok)
		twice, ok := RewriteResumeArgv(tool, once, "ref-1")
		require.True(t, ok)
		assert.Equal(t, once, twice, tool)
	}
}
