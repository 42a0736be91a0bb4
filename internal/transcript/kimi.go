// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

import "encoding/json"

type kimiLine struct {
	Message *kimiMessage `json:"message,omitempty"`
}

type kimiMessage struct {
	Type        string           `json:"type"`
	Text        string           `json:"text,omitempty"`
	Thinking    string           `json:"thinking,omitempty"`
	ToolCallID  string           `json:"tool_call_id,omitempty"`
	ToolName    string           `json:"tool_name,omitempty"`
	Input       map[string]any   `json:"input,omitempty"`
	ReturnValue *kimiReturnValue `json:"return_value,omitempty"`
}

type kimiReturnValue struct {
	Message string `json:"message,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}

var kimiStepBoundaries = map[string]bool{
	"StepBegin": true, "StepInterrupted": true, "TurnBegin": true,
}

// ParseKimiLine decodes one Kimi wire-log line. Text and thinking fragments
// are buffered across TextPart/ThinkPart messages and only surface as an
// Event at the next step boundary (§4.4).
func ParseKimiLine(state *State, line []byte) (Event, error) {
	var l kimiLine
	if err := json.Unmarshal(line, &l); err != nil {
		return Event{}, err
	}
	var ev Event
	if l.Message == nil {
		return ev, nil
	}
	msg := l.Message

	switch {
	case msg.Type == "TextPart" || msg.Type == "ContentPart":
		state.kimiAssistantText += msg.Text
		return ev, nil

	case msg.Type == "ThinkPart":
		state.kimiThinking += msg.Thinking
		return ev, nil

	case msg.Type == "ToolCall":
		state.toolUseIDToName.Set(msg.ToolCallID, msg.ToolName)
		state.toolUseIDToInput.Set(msg.ToolCallID, msg.Input)
		if msg.ToolName == "AskUserQuestion" {
			ev.Questions = append(ev.Questions, questionFromInput(msg.ToolCallID, msg.Input))
			return ev, nil
		}
		ev.ToolCalls = append(ev.ToolCalls, ToolCall{ID: msg.ToolCallID, Name: msg.ToolName, Input: msg.Input})
		return ev, nil

	case msg.Type == "ToolResult":
		name := msg.ToolName
		if name == "" {
			name, _ = state.toolUseIDToName.Get(msg.ToolCallID)
		}
		text, isError := "", false
		if msg.ReturnValue != nil {
			text, isError = msg.ReturnValue.Message, msg.ReturnValue.IsError
		}
		if ShouldForwardToolResult(name, text, isError) {
			ev.ToolResults = append(ev.ToolResults, ToolResult{
				ToolUseID: msg.ToolCallID,
				ToolName:  name,
				Text:      text,
				IsError:   isError,
				URLs:      ExtractURLs(text, ""),
			})
		}
		if job, ok := detectKimiBackgroundJob(text); ok {
			ev.BackgroundJobEvents = append(ev.BackgroundJobEvents, job)
		}
		return ev, nil

	case kimiStepBoundaries[msg.Type]:
		ev.AssistantText = state.kimiAssistantText
		ev.Thinking = state.kimiThinking
		state.kimiAssistantText = ""
		state.kimiThinking = ""
		return ev, nil
	}

	return ev, nil
}
