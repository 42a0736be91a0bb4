// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaudeAssistantTextAndThinking(t *testing.T) {
	state := NewState()
	line := []byte(`{"type":"assistant","message":{"role":"assistant","content":[
		{"type":"thinking","thinking":"let me check"},
		{"type":"text","text":"hello there"}
	]}}`)
	ev, err := ParseLine(DialectClaude, state, line)
	require.NoError(t, err)
	assert.Equal(t, "hello there", ev.AssistantText)
	assert.Equal(t, "let me check", ev.Thinking)
}

func TestClaudeAskUserQuestionLiftedNotToolCall(t *testing.T) {
	state := NewState()
	line := []byte(`{"type":"assistant","message":{"role":"assistant","content":[
		{"type":"tool_use","id":"t1","name":"AskUserQuestion","input":{"question":"continue?","options":["yes","no"]}}
	]}}`)
	ev, err := ParseLine(DialectClaude, state, line)
	require.NoError(t, err)
	assert.Empty(t, ev.ToolCalls)
	require.Len(t, ev.Questions, 1)
	assert.Equal(t, "continue?", ev.Questions[0].Prompt)
	assert.Equal(t, []string{"yes", "no"}, ev.Questions[0].Options)
}

func TestClaudeToolResultAllowlistFiltering(t *testing.T) {
	state := NewState()
	// Register a Read tool call (not in the allowlist).
	callLine := []byte(`{"type":"assistant","message":{"role":"assistant","content":[
		{"type":"tool_use","id":"t1","name":"Read","input":{}}
	]}}`)
	_, err := ParseLine(DialectClaude, state, callLine)
	require.NoError(t, err)

	resultLine := []byte(`{"type":"user","message":{"role":"user","content":[
		{"type":"tool_result","tool_use_id":"t1","content":"file contents","is_error":false}
	]}}`)
	ev, err := ParseLine(DialectClaude, state, resultLine)
	require.NoError(t, err)
	assert.Empty(t, ev.ToolResults, "Read is not in the forwarding allowlist and did not error")
}

func TestClaudeToolResultForwardedOnError(t *testing.T) {
	state := NewState()
	callLine := []byte(`{"type":"assistant","message":{"role":"assistant","content":[
		{"type":"tool_use","id":"t1","name":"Read","input":{}}
	]}}`)
	_, _ = ParseLine(DialectClaude, state, callLine)

	resultLine := []byte(`{"type":"user","message":{"role":"user","content":[
		{"type":"tool_result","tool_use_id":"t1","content":"boom","is_error":true}
	]}}`)
	ev, err := ParseLine(DialectClaude, state, resultLine)
	require.NoError(t, err)
	require.Len(t, ev.ToolResults, 1)
	assert.True(t, ev.ToolResults[0].IsError)
}

func TestClaudeSuppressedCancellationMessage(t *testing.T) {
	state := NewState()
	callLine := []byte(`{"type":"assistant","message":{"role":"assistant","content":[
		{"type":"tool_use","id":"t1","name":"Bash","input":{}}
	]}}`)
	_, _ = ParseLine(DialectClaude, state, callLine)

	resultLine := []byte(`{"type":"user","message":{"role":"user","content":[
		{"type":"tool_result","tool_use_id":"t1","content":"The user doesn't want to proceed with this tool use","is_error":true}
	]}}`)
	ev, err := ParseLine(DialectClaude, state, resultLine)
	require.NoError(t, err)
	assert.Empty(t, ev.ToolResults)
}

func TestClaudeBackgroundJobRunningAndKilled(t *testing.T) {
	state := NewState()
	running := []byte(`{"type":"user","message":{"role":"user","content":[
		{"type":"tool_result","tool_use_id":"t2","content":"Command running in background with ID: bg-1"}
	]}}`)
	ev, err := ParseLine(DialectClaude, state, running)
	require.NoError(t, err)
	require.Len(t, ev.BackgroundJobEvents, 1)
	assert.Equal(t, "bg-1", ev.BackgroundJobEvents[0].TaskID)
	assert.Equal(t, "running", ev.BackgroundJobEvents[0].Status)

	stopped := []byte(`{"type":"user","message":{"role":"user","content":[
		{"type":"tool_result","tool_use_id":"t2","content":"Successfully stopped task: bg-1 (npm run dev)"}
	]}}`)
	ev2, err := ParseLine(DialectClaude, state, stopped)
	require.NoError(t, err)
	require.Len(t, ev2.BackgroundJobEvents, 1)
	assert.Equal(t, "killed", ev2.BackgroundJobEvents[0].Status)
	assert.Equal(t, "npm run dev", ev2.BackgroundJobEvents[0].Command)
}

func TestCodexBackgroundJobLifecycle(t *testing.T) {
	state := NewState()
	callLine := []byte(`{"type":"response_item","response_item":{"type":"function_call","call_id":"c1","name":"exec_command","arguments":"{\"command\":\"npm run dev\"}"}}`)
	_, err := ParseLine(DialectCodex, state, callLine)
	require.NoError(t, err)

	runningLine := []byte(`{"type":"response_item","response_item":{"type":"function_call_output","call_id":"c1","output":"Process running with session ID 42"}}`)
	ev, err := ParseLine(DialectCodex, state, runningLine)
	require.NoError(t, err)
	require.Len(t, ev.BackgroundJobEvents, 1)
	assert.Equal(t, "42", ev.BackgroundJobEvents[0].TaskID)
	assert.Equal(t, "running", ev.BackgroundJobEvents[0].Status)
	assert.Equal(t, "npm run dev", ev.BackgroundJobEvents[0].Command)

	exitLine := []byte(`{"type":"response_item","response_item":{"type":"function_call_output","call_id":"c1","output":"Process exited with code 0"}}`)
	ev2, err := ParseLine(DialectCodex, state, exitLine)
	require.NoError(t, err)
	require.Len(t, ev2.BackgroundJobEvents, 1)
	assert.Equal(t, "completed", ev2.BackgroundJobEvents[0].Status)
	assert.Equal(t, "npm run dev", ev2.BackgroundJobEvents[0].Command)
}

func TestCodexAgentMessageAndReasoning(t *testing.T) {
	state := NewState()
	line := []byte(`{"type":"event_msg","event_msg":{"type":"agent_message","message":"done"}}`)
	ev, err := ParseLine(DialectCodex, state, line)
	require.NoError(t, err)
	assert.Equal(t, "done", ev.AssistantText)

	line2 := []byte(`{"type":"event_msg","event_msg":{"type":"agent_reasoning","message":"thinking about it"}}`)
	ev2, err := ParseLine(DialectCodex, state, line2)
	require.NoError(t, err)
	assert.Equal(t, "thinking about it", ev2.Thinking)
}

func TestKimiBuffersFlushAtStepBoundary(t *testing.T) {
	state := NewState()

	textLine := []byte(`{"message":{"type":"TextPart","text":"hello "}}`)
	ev, err := ParseLine(DialectKimi, state, textLine)
	require.NoError(t, err)
	assert.True(t, ev.IsEmpty(), "TextPart buffers instead of emitting immediately")

	textLine2 := []byte(`{"message":{"type":"TextPart","text":"world"}}`)
	_, _ = ParseLine(DialectKimi, state, textLine2)

	boundary := []byte(`{"message":{"type":"StepBegin"}}`)
	ev2, err := ParseLine(DialectKimi, state, boundary)
	require.NoError(t, err)
	assert.Equal(t, "hello world", ev2.AssistantText)

	// Buffer is reset after flush.
	boundary2 := []byte(`{"message":{"type":"TurnBegin"}}`)
	ev3, err := ParseLine(DialectKimi, state, boundary2)
	require.NoError(t, err)
	assert.Empty(t, ev3.AssistantText)
}

func TestPIToolResultForwardedForAllowlistedTool(t *testing.T) {
	state := NewState()
	line := []byte(`{"message":{"role":"toolResult","tool_use_id":"t1","tool_name":"Bash","text":"ok","is_error":false}}`)
	ev, err := ParseLine(DialectPI, state, line)
	require.NoError(t, err)
	require.Len(t, ev.ToolResults, 1)
	assert.Equal(t, "Bash", ev.ToolResults[0].ToolName)
}

// P5: replaying identical (state, line) pairs from a fresh state yields
// identical output.
func TestParseLineIsPure(t *testing.T) {
	line := []byte(`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"hi"}]}}`)

	s1 := NewState()
	ev1, err := ParseLine(DialectClaude, s1, line)
	require.NoError(t, err)

	s2 := NewState()
	ev2, err := ParseLine(DialectClaude, s2, line)
	require.NoError(t, err)

	assert.Equal(t, ev1, ev2)
}

func TestExtractURLsCapsAtThreeUnique(t *testing.T) {
	text := "see http://a.com and http://b.com and http://c.com and http://d.com"
	urls := ExtractURLs(text, "")
	assert.Len(t, urls, 3)
	assert.Equal(t, []string{"http://a.com", "http://b.com", "http://c.com"}, urls)
}

func TestExtractURLsHeuristicPortSniffing(t *testing.T) {
	urls := ExtractURLs("", "node server.js --port 4000")
	require.Len(t, urls, 1)
	assert.Equal(t, "http://localhost:4000", urls[0])
}

func TestBoundedMapEvictsOldest(t *testing.T) {
	m := newBoundedMap[string](2)
	m.Set("a", "1")
	m.Set("b", "2")
	m.Set("c", "3")
	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}
