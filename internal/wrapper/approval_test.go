// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateOptionLabelExactly100CharsEmitsAsIs(t *testing.T) {
	label := strings.Repeat("a", 100)
	assert.Equal(t, label, truncateOptionLabel(label))
}

func TestTruncateOptionLabel101CharsGetsSingleEllipsis(t *testing.T) {
	label := strings.Repeat("a", 101)
	got := truncateOptionLabel(label)
	assert.Equal(t, strings.Repeat("a", 100)+"…", got)
	assert.Equal(t, 1, strings.Count(got, "…"))
}

func TestScanForApprovalExtractsNumberedOptionsUntilFooter(t *testing.T) {
	buf := "Allow command to run?\n" +
		"1. Yes\n" +
		"2. Yes, always\n" +
		"3. No\n" +
		"Press enter to continue, Esc to cancel\n"
	prompt, opts, found := scanForApproval(ToolCodex, buf)
	require.True(t, found)
	assert.Equal(t, "Allow command to run?", prompt)
	assert.Equal(t, []string{"Yes", "Yes, always", "No"}, opts)
}

func TestScanForApprovalDedupesOptions(t *testing.T) {
	buf := "Do you want to proceed?\n" +
		"1. Yes\n" +
		"1. Yes\n" +
		"2. No\n"
	_, opts, found := scanForApproval(ToolPI, buf)
	require.True(t, found)
	assert.Equal(t, []string{"Yes", "No"}, opts)
}

func TestScanForApprovalNoMatchReturnsFalse(t *testing.T) {
	_, _, found := scanForApproval(ToolCodex, "nothing interesting here\n")
	assert.False(t, found)
}

func TestScanForApprovalClaudeNeverScraped(t *testing.T) {
	_, _, found := scanForApproval(ToolClaude, "Allow command to run?\n1. Yes\n2. No\n")
	assert.False(t, found)
}

func TestIsFooterMarkerMatchesKnownFooters(t *testing.T) {
	assert.True(t, IsFooterMarker("  Esc to cancel"))
	assert.True(t, IsFooterMarker("Press enter to continue"))
	assert.False(t, IsFooterMarker("3. No"))
}
