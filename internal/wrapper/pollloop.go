// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tomtev/touchgrass/pkg/client"
)

// bracketedPasteStart/End wrap chat-originated text before it's written to
// the PTY, so multi-line editors treat it as a single paste rather than a
// sequence of individually-interpreted keystrokes (§4.3 step 9, §8
// round-trip law).
const (
	bracketedPasteStart = "\x1b[200~"
	bracketedPasteEnd   = "\x1b[201~"
)

// stripControlEscapes removes raw ESC bytes from s before it's wrapped in
// a bracketed paste, so a message can't inject terminal control sequences
// into the child process (§8: "strips any ANSI control sequences from
// input before wrapping").
func stripControlEscapes(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0x1b {
			return -1
		}
		return r
	}, s)
}

// inputPollInterval is the wrapper's client-side poll cadence; the control
// server itself holds the connection open server-side for up to ~25s
// (§4.2 handleRemoteInput), so this loop is really just "call again
// immediately, with a short pause on transport error."
const inputPollInterval = 200 * time.Millisecond

// runInputLoop implements §4.3 step 9: long-poll the daemon for queued
// input and a pending control action, act on control first, then replay
// every queued input line into the PTY.
func (w *Wrapper) runInputLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		resp, err := w.client.Remote.Input(ctx, w.sessionID)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(inputPollInterval):
			}
			continue
		}
		if resp.Unknown {
			w.recovery.onUnknown()
			continue
		}
		w.recovery.onKnown()

		if resp.ControlAction != nil {
			if w.applyControlAction(ctx, *resp.ControlAction) {
				return
			}
		}
		for _, line := range resp.Input {
			w.writeInputLine(line)
		}
	}
}

// applyControlAction acts on a drained control action (§4.3 step 9).
// Returns true only for resume, after killing the tool, so the input loop
// ends and the wrapper's outer loop can respawn it; stop and kill return
// false and the input loop keeps polling.
func (w *Wrapper) applyControlAction(ctx context.Context, action client.ControlAction) bool {
	switch action.Kind {
	case "stop":
		_ = w.pty.Write([]byte{0x03}) // Ctrl-C
		return false
	case "kill":
		_ = w.pty.Write([]byte{0x03})
		_ = w.pty.Signal(sigint())
		go func() {
			time.Sleep(1500 * time.Millisecond)
			_ = w.pty.Kill()
		}()
		return false
	case "resume":
		_ = w.pty.Kill()
		w.pendingResumeRef = action.SessionRef
		return true
	default:
		return false
	}
}

// writeInputLine dispatches one queued input-queue entry: a control
// sentinel (POLL:/POLL_NEXT:/POLL_SUBMIT/POLL_OTHER) or plain chat text
// wrapped as a bracketed paste (§4.3 step 9).
func (w *Wrapper) writeInputLine(line string) {
	switch {
	case strings.HasPrefix(line, "POLL:"):
		w.synthesizePollSelection(line)
	case strings.HasPrefix(line, "POLL_NEXT:"):
		w.synthesizePollNext(line)
	case line == "POLL_SUBMIT":
		_ = w.pty.Write([]byte("\r"))
	case line == "POLL_OTHER":
		// No keypresses; the free-form answer text follows as the next
		// queued line and is written as ordinary bracketed-paste input.
	default:
		w.writePastedText(line)
	}
}

// synthesizePollSelection parses "POLL:<ids>:<multi>" and synthesizes the
// keypresses to select those option indices in the tool's own interactive
// menu (§4.3 step 9): for single-select, N x Down then Enter; for
// multi-select, Down to each index then Enter to toggle, with no final
// Enter (submission is the separate POLL_SUBMIT sentinel).
func (w *Wrapper) synthesizePollSelection(line string) {
	parts := strings.SplitN(strings.TrimPrefix(line, "POLL:"), ":", 2)
	if len(parts) != 2 {
		return
	}
	multi := parts[1] == "true"
	var ids []int
	for _, s := range strings.Split(parts[0], ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			ids = append(ids, n)
		}
	}
	if len(ids) == 0 {
		return
	}

	if !multi {
		w.pressDown(ids[0])
		_ = w.pty.Write([]byte("\r"))
		return
	}
	prev := 0
	for _, id := range ids {
		w.pressDown(id - prev)
		_ = w.pty.Write([]byte("\r"))
		prev = id
	}
}

// synthesizePollNext parses "POLL_NEXT:<pos>:<count>" and navigates to the
// menu's "Next" entry at pos, among count total entries, then confirms it.
func (w *Wrapper) synthesizePollNext(line string) {
	parts := strings.SplitN(strings.TrimPrefix(line, "POLL_NEXT:"), ":", 2)
	if len(parts) != 2 {
		return
	}
	pos, err := strconv.Atoi(parts[0])
	if err != nil {
		return
	}
	w.pressDown(pos)
	_ = w.pty.Write([]byte("\r"))
}

// pressDown writes n Down-arrow escape sequences.
func (w *Wrapper) pressDown(n int) {
	if n <= 0 {
		return
	}
	down := []byte("\x1b[B")
	buf := make([]byte, 0, len(down)*n)
	for i := 0; i < n; i++ {
		buf = append(buf, down...)
	}
	_ = w.pty.Write(buf)
}

// writePastedText wraps text as a bracketed paste, with control escapes
// stripped, then sends Enter twice: once to submit, and once more because
// multi-line editors treat the first Enter as a literal newline (§4.3
// step 9).
func (w *Wrapper) writePastedText(text string) {
	clean := stripControlEscapes(text)
	payload := bracketedPasteStart + clean + bracketedPasteEnd
	_ = w.pty.Write([]byte(payload))
	_ = w.pty.Write([]byte("\r\r"))
}
