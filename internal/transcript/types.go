// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package transcript parses the append-only JSONL transcripts that Claude,
// Codex, PI, and Kimi write for each run into one normalized event stream.
// The dispatch is a per-dialect decoder selected by the line's type tag,
// mirroring the factory-by-kind pattern the teacher uses for its log-line
// parsers, generalized here to the four tool dialects named in §4.4.
package transcript

import "time"

// Dialect names the tool whose wire format a line should be decoded as.
type Dialect string

const (
	DialectClaude Dialect = "claude"
	DialectCodex  Dialect = "codex"
	DialectPI     Dialect = "pi"
	DialectKimi   Dialect = "kimi"
)

// ToolCall is a normalized tool invocation extracted from a transcript line.
type ToolCall struct {
	ID   string
	Name string
	Input map[string]any
}

// ToolResult is a normalized tool result, already filtered for whether it
// should be forwarded to chat (see ShouldForwardToolResult).
type ToolResult struct {
	ToolUseID string
	ToolName  string
	Text      string
	IsError   bool
	URLs      []string
}

// Question is one lifted AskUserQuestion item.
type Question struct {
	ToolUseID string
	Prompt    string
	Options   []string
	MultiSelect bool
}

// BackgroundJobEvent is a normalized background-job lifecycle update.
type BackgroundJobEvent struct {
	TaskID  string
	Status  string // "running" | "completed" | "failed" | "killed"
	Command string
	URLs    []string
}

// Event is everything a single transcript line can yield. Any field may be
// zero-valued; a line commonly yields only one of them.
type Event struct {
	AssistantText       string
	Thinking            string
	Questions           []Question
	ToolCalls           []ToolCall
	ToolResults         []ToolResult
	BackgroundJobEvents []BackgroundJobEvent
	SessionID           string // present when the line reveals a rollover session id
	Timestamp           time.Time
}

// IsEmpty reports whether e carries nothing worth forwarding.
func (e Event) IsEmpty() bool {
	return e.AssistantText == "" && e.Thinking == "" && len(e.Questions) == 0 &&
		len(e.ToolCalls) == 0 && len(e.ToolResults) == 0 && len(e.BackgroundJobEvents) == 0
}
