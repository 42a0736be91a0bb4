// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

import "encoding/json"

type piLine struct {
	Message *piMessage `json:"message,omitempty"`
}

type piMessage struct {
	Role      string               `json:"role"` // assistant | toolResult
	Content   []claudeContentBlock `json:"content,omitempty"`
	ToolUseID string               `json:"tool_use_id,omitempty"`
	ToolName  string               `json:"tool_name,omitempty"`
	Text      string               `json:"text,omitempty"`
	IsError   bool                 `json:"is_error,omitempty"`
}

// ParsePILine decodes one PI transcript line.
func ParsePILine(state *State, line []byte) (Event, error) {
	var l piLine
	if err := json.Unmarshal(line, &l); err != nil {
		return Event{}, err
	}
	var ev Event
	if l.Message == nil {
		return ev, nil
	}

	switch l.Message.Role {
	case "assistant":
		parseClaudeAssistant(state, &claudeMessage{Content: l.Message.Content}, &ev)
	case "toolResult":
		name := l.Message.ToolName
		if name == "" {
			name, _ = state.toolUseIDToName.Get(l.Message.ToolUseID)
		}
		if ShouldForwardToolResult(name, l.Message.Text, l.Message.IsError) {
			ev.ToolResults = append(ev.ToolResults, ToolResult{
				ToolUseID: l.Message.ToolUseID,
				ToolName:  name,
				Text:      l.Message.Text,
				IsError:   l.Message.IsError,
				URLs:      ExtractURLs(l.Message.Text, ""),
			})
		}
	}
	return ev, nil
}
