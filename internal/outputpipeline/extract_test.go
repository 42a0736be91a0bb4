// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package outputpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Scenario 1 (§8): Codex resume argv, subcommand form.
func TestExtractCodexResumeRefSubcommandForm(t *testing.T) {
	argv := []string{"codex", "--dangerously-bypass-approvals-and-sandbox", "resume", "019c56ac-417b-7180-bd3f-2ed6e25885e3"}
	ref := ExtractResumeRef("codex", argv)
	assert.Equal(t, []string{"--dangerously-bypass-approvals-and-sandbox"}, ref.BaseArgs)
	assert.Equal(t, "019c56ac-417b-7180-bd3f-2ed6e25885e3", ref.ResumeID)
	assert.False(t, ref.UseResumeLast)
}

func TestExtractCodexResumeRefLastFlag(t *testing.T) {
	argv := []string{"codex", "exec", "--last", "--json", "do it"}
	ref := ExtractResumeRef("codex", argv)
	assert.True(t, ref.UseResumeLast)
	assert.Empty(t, ref.ResumeID)
}

// Scenario 2 (§8): Kimi resume extraction.
func TestExtractKimiResumeRef(t *testing.T) {
	argv := []string{"kimi", "--model", "kimi-k2", "--session", "b6e5f0a5-1c85-4d8f-9dd6-5f4f18cb0f30", "--yolo"}
	ref := ExtractResumeRef("kimi", argv)
	assert.Equal(t, []string{"--model", "kimi-k2", "--yolo"}, ref.BaseArgs)
	assert.Equal(t, "b6e5f0a5-1c85-4d8f-9dd6-5f4f18cb0f30", ref.ResumeID)
	assert.False(t, ref.UseResumeLast)
}

func TestExtractClaudeResumeRef(t *testing.T) {
	argv := []string{"claude", "--dangerously-skip-permissions", "--resume", "old-id"}
	ref := ExtractResumeRef("claude", argv)
	assert.Equal(t, []string{"--dangerously-skip-permissions"}, ref.BaseArgs)
	assert.Equal(t, "old-id", ref.ResumeID)
}
