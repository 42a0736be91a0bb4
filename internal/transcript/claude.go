// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"encoding/json"
	"regexp"
)

type claudeLine struct {
	Type          string               `json:"type"`
	Message       *claudeMessage       `json:"message,omitempty"`
	ToolUseResult *claudeToolUseResult `json:"toolUseResult,omitempty"`
	SessionID     string               `json:"session_id,omitempty"`
	Content       string               `json:"content,omitempty"` // queue-operation body
}

type claudeMessage struct {
	Role    string               `json:"role"`
	Content []claudeContentBlock `json:"content"`
}

type claudeContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     map[string]any  `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type claudeToolUseResult struct {
	BackgroundTaskID string `json:"backgroundTaskId,omitempty"`
	Message          string `json:"message,omitempty"`
}

var reTaskNotification = regexp.MustCompile(`(?s)<task-notification[^>]*status="(\w+)"[^>]*(?:task[_-]?id="([^"]*)")?[^>]*>(.*?)</task-notification>`)

// ParseClaudeLine decodes one Claude transcript line.
func ParseClaudeLine(state *State, line []byte) (Event, error) {
	var l claudeLine
	if err := json.Unmarshal(line, &l); err != nil {
		return Event{}, err
	}
	if l.SessionID != "" {
		state.lastSeenSessionID = l.SessionID
	}

	var ev Event
	ev.SessionID = l.SessionID

	switch {
	case l.Type == "assistant" && l.Message != nil:
		parseClaudeAssistant(state, l.Message, &ev)
	case l.Type == "user" && l.Message != nil:
		parseClaudeToolResults(state, l.Message, l.ToolUseResult, &ev)
	case l.Type == "queue-operation":
		parseClaudeQueueNotification(l.Content, &ev)
	}
	return ev, nil
}

func parseClaudeAssistant(state *State, msg *claudeMessage, ev *Event) {
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			ev.AssistantText += block.Text
		case "thinking":
			ev.Thinking += block.Thinking
		case "tool_use":
			state.toolUseIDToName.Set(block.ID, block.Name)
			state.toolUseIDToInput.Set(block.ID, block.Input)
			if block.Name == "AskUserQuestion" {
				ev.Questions = append(ev.Questions, questionFromInput(block.ID, block.Input))
				continue
			}
			ev.ToolCalls = append(ev.ToolCalls, ToolCall{ID: block.ID, Name: block.Name, Input: block.Input})
		}
	}
}

func questionFromInput(toolUseID string, input map[string]any) Question {
	q := Question{ToolUseID: toolUseID}
	if p, ok := input["question"].(string); ok {
		q.Prompt = p
	}
	if opts, ok := input["options"].([]any); ok {
		for _, o := range opts {
			if s, ok := o.(string); ok {
				q.Options = append(q.Options, s)
			} else if m, ok := o.(map[string]any); ok {
				if label, ok := m["label"].(string); ok {
					q.Options = append(q.Options, label)
				}
			}
		}
	}
	if multi, ok := input["multiSelect"].(bool); ok {
		q.MultiSelect = multi
	}
	return q
}

func parseClaudeToolResults(state *State, msg *claudeMessage, tr *claudeToolUseResult, ev *Event) {
	for _, block := range msg.Content {
		if block.Type != "tool_result" {
			continue
		}
		text := decodeToolResultContent(block.Content)
		name, _ := state.toolUseIDToName.Get(block.ToolUseID)

		if ShouldForwardToolResult(name, text, block.IsError) {
			ev.ToolResults = append(ev.ToolResults, ToolResult{
				ToolUseID: block.ToolUseID,
				ToolName:  name,
				Text:      text,
				IsError:   block.IsError,
				URLs:      ExtractURLs(text, ""),
			})
		}

		backgroundTaskID := ""
		if tr != nil {
			backgroundTaskID = tr.BackgroundTaskID
		}
		if job, ok := detectClaudeBackgroundJob(text, backgroundTaskID); ok {
			ev.BackgroundJobEvents = append(ev.BackgroundJobEvents, job)
		}
		if tr != nil && tr.Message != "" {
			if job, ok := detectClaudeBackgroundJob(tr.Message, ""); ok {
				ev.BackgroundJobEvents = append(ev.BackgroundJobEvents, job)
			}
		}
	}
}

func decodeToolResultContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var out string
		for _, b := range blocks {
			out += b.Text
		}
		return out
	}
	return string(raw)
}

func parseClaudeQueueNotification(content string, ev *Event) {
	m := reTaskNotification.FindStringSubmatch(content)
	if m == nil {
		return
	}
	status := normalizeJobStatus(m[1])
	ev.BackgroundJobEvents = append(ev.BackgroundJobEvents, BackgroundJobEvent{
		TaskID:  m[2],
		Status:  status,
		Command: m[3],
	})
}

func normalizeJobStatus(raw string) string {
	switch raw {
	case "running", "completed", "failed", "killed":
		return raw
	default:
		return "running"
	}
}
