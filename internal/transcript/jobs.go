// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"regexp"
	"strconv"
)

var (
	reBgRunning   = regexp.MustCompile(`Command running in background with ID:\s*(\S+)`)
	reBgStopped   = regexp.MustCompile(`Successfully stopped task:\s*(\S+)(?:\s*\(([^)]*)\))?`)
	reBgKilledMsg = regexp.MustCompile(`(?i)(stopped|killed|terminated|cancelled) task`)

	reCodexRunning  = regexp.MustCompile(`Process running with session ID\s*(\d+)`)
	reCodexExited   = regexp.MustCompile(`Process exited with code\s*(\d+)`)
	reCodexStdinEnd = regexp.MustCompile(`(?i)stdin is closed`)
	reCodexNoSess   = regexp.MustCompile(`(?i)session not found`)
)

// detectClaudeBackgroundJob inspects a Claude tool_result body for the
// background-job lifecycle markers in §4.4.
func detectClaudeBackgroundJob(text string, backgroundTaskID string) (BackgroundJobEvent, bool) {
	if m := reBgRunning.FindStringSubmatch(text); m != nil {
		return BackgroundJobEvent{TaskID: m[1], Status: "running"}, true
	}
	if backgroundTaskID != "" {
		return BackgroundJobEvent{TaskID: backgroundTaskID, Status: "running"}, true
	}
	if m := reBgStopped.FindStringSubmatch(text); m != nil {
		return BackgroundJobEvent{TaskID: m[1], Status: "killed", Command: m[2]}, true
	}
	if reBgKilledMsg.MatchString(text) {
		return BackgroundJobEvent{Status: "killed"}, true
	}
	return BackgroundJobEvent{}, false
}

// detectCodexBackgroundJob tracks the running/exited lifecycle for Codex's
// exec_command background sessions, consulting and updating the session-id
// -> command cache so a later exit event can report the original command
// even when the exit record itself doesn't carry it.
func detectCodexBackgroundJob(state *State, text, command string) (BackgroundJobEvent, bool) {
	if m := reCodexRunning.FindStringSubmatch(text); m != nil {
		sessID := m[1]
		state.codexSessionIDToCommand.Set(sessID, command)
		return BackgroundJobEvent{TaskID: sessID, Status: "running", Command: command}, true
	}
	if m := reCodexExited.FindStringSubmatch(text); m != nil {
		code, _ := strconv.Atoi(m[1])
		status := "completed"
		if code != 0 {
			status = "failed"
		}
		return finishCodexJob(state, status), true
	}
	if reCodexStdinEnd.MatchString(text) || reCodexNoSess.MatchString(text) {
		return finishCodexJob(state, "killed"), true
	}
	return BackgroundJobEvent{}, false
}

// finishCodexJob attaches and evicts the cached command for whichever Codex
// session id was most recently seen running; the exit record rarely
// repeats the session id itself.
func finishCodexJob(state *State, status string) BackgroundJobEvent {
	var id, cmd string
	order := state.codexSessionIDToCommand.order
	for i := len(order) - 1; i >= 0; i-- {
		if c, ok := state.codexSessionIDToCommand.entries[order[i]]; ok {
			id, cmd = order[i], c
			break
		}
	}
	if id != "" {
		state.codexSessionIDToCommand.Delete(id)
	}
	return BackgroundJobEvent{TaskID: id, Status: status, Command: cmd}
}

// detectKimiBackgroundJob reuses the Claude regexes against a Kimi
// ToolResult.return_value.message body (§4.4).
func detectKimiBackgroundJob(message string) (BackgroundJobEvent, bool) {
	return detectClaudeBackgroundJob(message, "")
}
