// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMarkdownEscapesBeforeConverting(t *testing.T) {
	f := htmlFormatter{}
	out := f.FromMarkdown("**bold** <script> _em_ `code`")
	assert.Equal(t, "<b>bold</b> &lt;script&gt; <i>em</i> <code>code</code>", out)
}

func TestStripANSIRemovesEscapeSequences(t *testing.T) {
	in := "\x1b[31merror\x1b[0m: boom"
	assert.Equal(t, "error: boom", stripANSI(in))
}

func TestChunkTextPrefersNewlineBoundary(t *testing.T) {
	line := strings.Repeat("a", 10)
	s := strings.Join([]string{line, line, line, line}, "\n") // 4*10 + 3 = 43 bytes
	chunks := chunkText(s, 25)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.True(t, len(c) <= 25)
	}
	assert.Equal(t, s, strings.Join(chunks, ""))
}

func TestChunkTextFallsBackToHardCutWithNoNewline(t *testing.T) {
	s := strings.Repeat("b", 30)
	chunks := chunkText(s, 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, s, strings.Join(chunks, ""))
}

func TestTruncateOptionLabelBoundary(t *testing.T) {
	exactly100 := strings.Repeat("x", 100)
	assert.Equal(t, exactly100, truncateOptionLabel(exactly100))

	over100 := strings.Repeat("x", 101)
	got := truncateOptionLabel(over100)
	assert.Equal(t, strings.Repeat("x", 100)+"…", got)
}

func TestParseCallbackData(t *testing.T) {
	pollID, idx, ok := parseCallbackData("tgp:abc-123:2")
	require.True(t, ok)
	assert.Equal(t, "abc-123", pollID)
	assert.Equal(t, 2, idx)

	_, _, ok = parseCallbackData("not-a-callback")
	assert.False(t, ok)

	_, _, ok = parseCallbackData("tgp:abc:notanumber")
	assert.False(t, ok)

	_, _, ok = parseCallbackData("other:abc:1")
	assert.False(t, ok)
}

func TestIsNotModifiedError(t *testing.T) {
	assert.True(t, isNotModifiedError(errString("Bad Request: message is not modified")))
	assert.False(t, isNotModifiedError(errString("Bad Request: chat not found")))
}

type errString string

func (e errString) Error() string { return string(e) }
