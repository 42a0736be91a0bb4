// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package outputpipeline

import (
	"fmt"
	"strings"

	"github.com/tomtev/touchgrass/internal/channel"
	"github.com/tomtev/touchgrass/internal/transcript"
)

// simpleSuppressedToolCalls names tool calls compact mode never shows
// (§4.7): the tool result, if forwarded at all, speaks for itself.
var simpleSuppressedToolCalls = map[string]bool{
	"Bash": true, "bash": true, "exec_command": true,
	"write_stdin": true, "read_stdin": true,
}

// simpleForwardedResultTools names the only tools whose results survive in
// compact mode (besides errors, which always survive).
var simpleForwardedResultTools = map[string]bool{
	"WebSearch": true, "WebFetch": true, "web_search": true, "web_fetch": true,
}

var toolEmoji = map[string]string{
	"Edit": "✏️", "Write": "📝", "Read": "👀",
	"Bash": "💻", "bash": "💻", "exec_command": "💻",
	"WebFetch": "🌐", "web_fetch": "🌐", "WebSearch": "🔎", "web_search": "🔎",
	"Task": "🤖", "spawn_agent": "🤖",
}

func emojiFor(name string) string {
	if e, ok := toolEmoji[name]; ok {
		return e
	}
	return "🔧"
}

// ShouldShowToolCall reports whether a tool call should render at all in
// the given output mode.
func ShouldShowToolCall(mode, toolName string) bool {
	if mode != "verbose" && simpleSuppressedToolCalls[toolName] {
		return false
	}
	return true
}

// ShouldShowToolResult reports whether a tool result should render in the
// given output mode (on top of the base §4.4 allowlist already applied
// upstream by transcript.ShouldForwardToolResult).
func ShouldShowToolResult(mode string, toolName string, isError bool) bool {
	if mode == "verbose" || isError {
		return true
	}
	return simpleForwardedResultTools[toolName]
}

// RenderToolCall renders a tool call as a chat line: a compact one-liner in
// simple mode (e.g. "✏️ src/foo.ts"), and a fuller rendering including a
// truncated diff or leading command lines in verbose mode.
func RenderToolCall(fmtr channel.Formatter, mode string, tc transcript.ToolCall) string {
	emoji := emojiFor(tc.Name)

	switch tc.Name {
	case "Edit", "Write":
		path, _ := tc.Input["file_path"].(string)
		if path == "" {
			path, _ = tc.Input["path"].(string)
		}
		line := emoji + " " + fmtr.Code(path)
		if mode != "verbose" {
			return line
		}
		if diff, ok := tc.Input["new_string"].(string); ok {
			return line + "\n" + fmtr.Pre(truncateLines(diff, 6))
		}
		return line

	case "Bash", "bash", "exec_command":
		cmd, _ := tc.Input["command"].(string)
		if mode != "verbose" {
			return emoji + " " + fmtr.Code(firstLine(cmd))
		}
		return emoji + " " + fmtr.Pre(truncateLines(cmd, 4))

	default:
		return emoji + " " + fmtr.Code(tc.Name)
	}
}

// RenderToolResult renders a forwarded tool result, truncating long bodies.
func RenderToolResult(fmtr channel.Formatter, tr transcript.ToolResult) string {
	text := truncateLines(tr.Text, 20)
	prefix := "✅"
	if tr.IsError {
		prefix = "⚠️"
	}
	out := prefix + " " + fmtr.Pre(text)
	for _, u := range tr.URLs {
		out += "\n" + fmtr.Link(u, u)
	}
	return out
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + "…"
	}
	return s
}

func truncateLines(s string, maxLines int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	return strings.Join(lines[:maxLines], "\n") + fmt.Sprintf("\n… (%d more lines)", len(lines)-maxLines)
}
