// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

import "regexp"

// forwardedToolNames is the allowlist from §4.4: a successful (non-error)
// tool result is only forwarded to chat when its tool name is in this set.
var forwardedToolNames = map[string]bool{
	"WebFetch": true, "WebSearch": true, "Bash": true,
	"web_fetch": true, "web_search": true, "bash": true,
	"exec_command": true, "Task": true, "spawn_agent": true,
	"send_input": true, "wait": true,
}

// suppressedErrorText is an error body that duplicates the local TTY
// message and should never be forwarded.
const suppressedErrorText = "The user doesn't want to proceed with this tool use"

// ShouldForwardToolResult applies the §4.4 filtering rule: forward only on
// error, or when the tool is in the allowlist; but never forward the
// specific suppressed cancellation message.
func ShouldForwardToolResult(toolName, text string, isError bool) bool {
	if contains(text, suppressedErrorText) {
		return false
	}
	if isError {
		return true
	}
	return forwardedToolNames[toolName]
}

func contains(haystack, needle string) bool {
	return len(needle) == 0 || indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	if m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}

var (
	reLocalhostPort = regexp.MustCompile(`localhost:(\d+)`)
	reFlagPortSpace = regexp.MustCompile(`--port[= ](\d+)`)
	reFlagPortShort = regexp.MustCompile(`-p[= ](\d+)`)
	reListenCall    = regexp.MustCompile(`\.listen\((\d+)\)`)
	reURL           = regexp.MustCompile(`https?://[^\s"'<>\\)]+`)
)

// ExtractURLs pulls explicit URLs out of text, then supplements with
// heuristic port-sniffing of command (the process argv/command line),
// keeping only the first three unique results (§4.4).
func ExtractURLs(text, command string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		if u == "" || seen[u] || len(out) >= 3 {
			return
		}
		seen[u] = true
		out = append(out, u)
	}

	for _, m := range reURL.FindAllString(text, -1) {
		add(m)
		if len(out) >= 3 {
			return out
		}
	}

	for _, re := range []*regexp.Regexp{reLocalhostPort, reFlagPortSpace, reFlagPortShort, reListenCall} {
		for _, m := range re.FindAllStringSubmatch(command, -1) {
			if len(m) > 1 {
				add("http://localhost:" + m[1])
			}
			if len(out) >= 3 {
				return out
			}
		}
	}
	return out
}
