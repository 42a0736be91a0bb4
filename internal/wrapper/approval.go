// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"strings"
)

// maxOptionLabelChars and optionEllipsis implement the boundary behavior
// named in §8: "exactly 100 option-label chars emit as-is; >=101 chars are
// suffixed with a single ellipsis."
const maxOptionLabelChars = 100
const optionEllipsis = "…"

// approvalDebounceDelay (wrapper.go) is the 1s delay between detecting a prompt and posting
// it, so an identical prompt re-rendered by the tool's own redraw doesn't
// fire twice (§4.3 step 8, §5 "approval poll detection debounces 1s").
//
// scanForApproval looks for tool's configured {promptText, optionText}
// pair in buf (the PTY's rolling, ANSI-stripped output) and, on a match,
// extracts the numbered option list. Claude is never scanned this way; it
// reports approvals via the hook endpoint instead.
func scanForApproval(tool Tool, buf string) (prompt string, options []string, found bool) {
	promptRe, optionsRe, ok := tool.ApprovalPattern()
	if !ok {
		return "", nil, false
	}
	loc := promptRe.FindStringIndex(buf)
	if loc == nil {
		return "", nil, false
	}

	// The prompt text itself is the matched line (or a short window
	// around it); the options follow in the remaining buffer.
	promptLine := lineAt(buf, loc[0])
	tail := buf[loc[1]:]

	var opts []string
	for _, line := range strings.Split(tail, "\n") {
		if IsFooterMarker(line) {
			break
		}
		m := optionsRe.FindStringSubmatch(line)
		if m == nil {
			if len(opts) > 0 {
				// A non-numbered, non-footer line after we've already
				// started collecting options ends the list.
				break
			}
			continue
		}
		opts = append(opts, truncateOptionLabel(strings.TrimSpace(m[2])))
	}
	opts = dedupeStrings(opts)
	if len(opts) == 0 {
		return "", nil, false
	}
	return strings.TrimSpace(promptLine), opts, true
}

// lineAt returns the full line of buf containing byte offset idx.
func lineAt(buf string, idx int) string {
	start := strings.LastIndexByte(buf[:idx], '\n') + 1
	end := strings.IndexByte(buf[idx:], '\n')
	if end == -1 {
		return buf[start:]
	}
	return buf[start : idx+end]
}

// truncateOptionLabel enforces the exactly-100-chars boundary from §8.
func truncateOptionLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= maxOptionLabelChars {
		return label
	}
	return string(runes[:maxOptionLabelChars]) + optionEllipsis
}

// dedupeStrings removes duplicate option labels while preserving order.
// Prompt-level de-duplication is runApprovalScan's lastPrompt check.
func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
