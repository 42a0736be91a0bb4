// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

import "fmt"

// ParseLine is a pure function of (state, line): decoding the same line
// against the same state always yields the same Event (P5). Malformed JSON
// is the caller's concern to recover from -- per §7 ProtocolError, the
// wrapper drops the single offending line and continues.
func ParseLine(dialect Dialect, state *State, line []byte) (Event, error) {
	switch dialect {
	case DialectClaude:
		return ParseClaudeLine(state, line)
	case DialectCodex:
		return ParseCodexLine(state, line)
	case DialectPI:
		return ParsePILine(state, line)
	case DialectKimi:
		return ParseKimiLine(state, line)
	default:
		return Event{}, fmt.Errorf("transcript: unknown dialect %q", dialect)
	}
}
