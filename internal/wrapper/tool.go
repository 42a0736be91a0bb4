// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package wrapper implements the `tg <tool>` process: it spawns one of the
// four supported AI coding CLIs inside a pseudo-terminal, tails the tool's
// own JSONL transcript, forwards normalized events to the daemon, and
// relays chat-originated input and control actions back into the PTY
// (§4.3). It is a distinct process from the daemon but ships in the same
// binary.
package wrapper

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tomtev/touchgrass/internal/transcript"
)

// Tool names the four supported CLIs. Detection is by argv[0]'s base name,
// matching the wrapper invocation `tg <tool> [args...]`.
type Tool string

const (
	ToolClaude Tool = "claude"
	ToolCodex  Tool = "codex"
	ToolPI     Tool = "pi"
	ToolKimi   Tool = "kimi"
)

// DetectTool maps an argv[0] to a known Tool, stripping any directory and
// ignoring case. The base name must equal a tool name exactly; names with
// a version or extension suffix are not recognized.
func DetectTool(arg0 string) (Tool, bool) {
	name := strings.ToLower(filepath.Base(arg0))
	switch name {
	case "claude":
		return ToolClaude, true
	case "codex":
		return ToolCodex, true
	case "pi":
		return ToolPI, true
	case "kimi":
		return ToolKimi, true
	}
	return "", false
}

// Dialect maps a Tool to the transcript dialect that parses its JSONL.
func (t Tool) Dialect() transcript.Dialect {
	switch t {
	case ToolClaude:
		return transcript.DialectClaude
	case ToolCodex:
		return transcript.DialectCodex
	case ToolPI:
		return transcript.DialectPI
	case ToolKimi:
		return transcript.DialectKimi
	default:
		return transcript.DialectClaude
	}
}

// minVersionArg is the flag each tool accepts to print its version. No
// minimum version is stored or compared anywhere; the pre-flight in cmd/tg
// only checks that `<tool> --version` runs successfully.
var minVersionArg = map[Tool]string{
	ToolClaude: "--version",
	ToolCodex:  "--version",
	ToolPI:     "--version",
	ToolKimi:   "--version",
}

// VersionArg returns the version flag to invoke for t.
func (t Tool) VersionArg() string { return minVersionArg[t] }

// approvalPattern is the per-tool {promptText, optionText} pair used to
// scan the PTY's rolling output buffer for an approval prompt (§4.3 step
// 8). Claude is absent here: it reports approvals via the hook endpoint
// instead of PTY scraping.
type approvalPattern struct {
	prompt  *regexp.Regexp
	options *regexp.Regexp
}

var approvalPatterns = map[Tool]approvalPattern{
	ToolCodex: {
		prompt:  regexp.MustCompile(`(?i)allow command|approve this (command|change)|would you like to`),
		options: regexp.MustCompile(`(?m)^\s*(\d+)\.\s+(.+)$`),
	},
	ToolPI: {
		prompt:  regexp.MustCompile(`(?i)permission required|do you want to proceed`),
		options: regexp.MustCompile(`(?m)^\s*(\d+)\.\s+(.+)$`),
	},
	ToolKimi: {
		prompt:  regexp.MustCompile(`(?i)needs your approval|allow this action`),
		options: regexp.MustCompile(`(?m)^\s*(\d+)\.\s+(.+)$`),
	},
}

// ApprovalPattern reports the {prompt, options} regex pair for t, and
// whether t uses PTY scraping at all (Claude instead relies on hooks).
func (t Tool) ApprovalPattern() (promptRe, optionsRe *regexp.Regexp, ok bool) {
	p, found := approvalPatterns[t]
	if !found {
		return nil, nil, false
	}
	return p.prompt, p.options, true
}

// footerMarkers terminate the numbered-option scan in a PTY buffer (§4.3
// step 8): a line matching any of these ends the option list even if it
// looks like it could continue.
var footerMarkers = []string{"esc to cancel", "press enter", "press return"}

// IsFooterMarker reports whether line is a footer marker that should stop
// option extraction.
func IsFooterMarker(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, m := range footerMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
