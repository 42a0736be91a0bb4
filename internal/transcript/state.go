// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

// stateCap is the 200-entry bound applied to every cross-line state map
// (§4.4).
const stateCap = 200

// State is the per-session state the parser carries across lines. It is
// pure data: ParseLine is a pure function of (state, line) (P5), so two
// parsers seeded with identical state and fed identical lines produce
// identical events.
type State struct {
	toolUseIDToName  *boundedMap[string]
	toolUseIDToInput *boundedMap[map[string]any]

	codexSessionIDToCommand *boundedMap[string]

	kimiAssistantText string
	kimiThinking      string

	lastSeenSessionID string
}

// NewState returns a fresh, empty parser state for one session.
func NewState() *State {
	return &State{
		toolUseIDToName:         newBoundedMap[string](stateCap),
		toolUseIDToInput:        newBoundedMap[map[string]any](stateCap),
		codexSessionIDToCommand: newBoundedMap[string](stateCap),
	}
}
