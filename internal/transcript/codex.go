// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

import "encoding/json"

type codexLine struct {
	Type         string             `json:"type"`
	EventMsg     *codexEventMsg     `json:"event_msg,omitempty"`
	ResponseItem *codexResponseItem `json:"response_item,omitempty"`
}

type codexEventMsg struct {
	Type    string `json:"type"` // agent_message | agent_reasoning
	Message string `json:"message,omitempty"`
}

type codexResponseItem struct {
	Type      string               `json:"type"`
	Role      string               `json:"role,omitempty"`
	CallID    string               `json:"call_id,omitempty"`
	Name      string               `json:"name,omitempty"`
	Arguments string               `json:"arguments,omitempty"`
	Output    string               `json:"output,omitempty"`
	Content   []claudeContentBlock `json:"content,omitempty"`
}

// ParseCodexLine decodes one Codex transcript line.
func ParseCodexLine(state *State, line []byte) (Event, error) {
	var l codexLine
	if err := json.Unmarshal(line, &l); err != nil {
		return Event{}, err
	}

	var ev Event
	switch l.Type {
	case "event_msg":
		if l.EventMsg != nil {
			parseCodexEventMsg(l.EventMsg, &ev)
		}
	case "response_item":
		if l.ResponseItem != nil {
			parseCodexResponseItem(state, l.ResponseItem, &ev)
		}
	}
	return ev, nil
}

func parseCodexEventMsg(m *codexEventMsg, ev *Event) {
	switch m.Type {
	case "agent_message":
		ev.AssistantText += m.Message
	case "agent_reasoning":
		ev.Thinking += m.Message
	}
}

func parseCodexResponseItem(state *State, item *codexResponseItem, ev *Event) {
	switch item.Type {
	case "function_call", "custom_tool_call":
		input := parseJSONObject(item.Arguments)
		state.toolUseIDToName.Set(item.CallID, item.Name)
		state.toolUseIDToInput.Set(item.CallID, input)
		if item.Name == "AskUserQuestion" {
			ev.Questions = append(ev.Questions, questionFromInput(item.CallID, input))
			return
		}
		ev.ToolCalls = append(ev.ToolCalls, ToolCall{ID: item.CallID, Name: item.Name, Input: input})

	case "function_call_output", "custom_tool_call_output":
		name, _ := state.toolUseIDToName.Get(item.CallID)
		input, _ := state.toolUseIDToInput.Get(item.CallID)
		command := commandFromInput(input)

		isError := false
		if ShouldForwardToolResult(name, item.Output, isError) {
			ev.ToolResults = append(ev.ToolResults, ToolResult{
				ToolUseID: item.CallID,
				ToolName:  name,
				Text:      item.Output,
				URLs:      ExtractURLs(item.Output, command),
			})
		}
		if name == "exec_command" || name == "" {
			if job, ok := detectCodexBackgroundJob(state, item.Output, command); ok {
				ev.BackgroundJobEvents = append(ev.BackgroundJobEvents, job)
			}
		}

	case "message":
		if item.Role == "assistant" {
			for _, block := range item.Content {
				if block.Type == "text" || block.Type == "output_text" {
					ev.AssistantText += block.Text
				}
			}
		}
	}
}

func parseJSONObject(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}

func commandFromInput(input map[string]any) string {
	if input == nil {
		return ""
	}
	switch v := input["command"].(type) {
	case string:
		return v
	case []any:
		var out string
		for i, part := range v {
			if s, ok := part.(string); ok {
				if i > 0 {
					out += " "
				}
				out += s
			}
		}
		return out
	}
	return ""
}
