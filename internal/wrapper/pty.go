// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// ringBufferLimit is the number of ANSI-stripped characters the PTY
// bridge keeps for approval-prompt scanning (§4.3 step 5: "~2,000 chars").
const ringBufferLimit = 2000

// ptyBridge owns the tool's pseudo-terminal: it forwards the local
// terminal's stdin to the child, mirrors the child's output to local
// stdout, and keeps a rolling ANSI-stripped buffer for approval scanning.
// Grounded on igoryan-dao/ricochet's PTYManager/SimpleBuffer pattern
// (core/internal/host/pty_manager.go), generalized from a multi-session
// manager keyed map to the wrapper's single owned PTY.
type ptyBridge struct {
	cmd *exec.Cmd
	pty *os.File

	mu     sync.Mutex
	ring   []byte
	closed bool

	stopResize chan struct{}
}

// spawnPTY starts argv[0] with argv[1:] in dir, attached to a new PTY sized
// to the local terminal's current dimensions. Forwarding of stdin/stdout
// and SIGWINCH handling starts immediately; call Wait() for the process to
// exit.
func spawnPTY(argv []string, dir string) (*ptyBridge, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	size := currentWinsize()
	ptmx, err := pty.StartWithSize(cmd, size)
	if err != nil {
		return nil, err
	}

	b := &ptyBridge{
		cmd:        cmd,
		pty:        ptmx,
		stopResize: make(chan struct{}),
	}
	b.forwardStdin()
	b.forwardStdout()
	b.watchResize()
	return b, nil
}

// currentWinsize reads the local terminal's size, falling back to a
// reasonable default when stdin isn't a TTY (e.g. under test).
func currentWinsize() *pty.Winsize {
	cols, rows := 80, 24
	if w, h, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
		cols, rows = w, h
	}
	return &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
}

// forwardStdin copies the wrapper's own stdin verbatim into the PTY, so a
// developer sitting at the local terminal can drive the tool directly
// alongside chat-originated input.
func (b *ptyBridge) forwardStdin() {
	go func() {
		_, _ = io.Copy(b.pty, os.Stdin)
	}()
}

// forwardStdout copies PTY output to local stdout verbatim and into the
// rolling approval-scan buffer, stripped of ANSI escapes (§4.3 step 5).
func (b *ptyBridge) forwardStdout() {
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := b.pty.Read(buf)
			if n > 0 {
				chunk := buf[:n]
				os.Stdout.Write(chunk)
				b.appendRing(stripANSI(chunk))
			}
			if err != nil {
				return
			}
		}
	}()
}

// appendRing appends stripped to the rolling buffer, trimming from the
// front once it exceeds ringBufferLimit.
func (b *ptyBridge) appendRing(stripped []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ring = append(b.ring, stripped...)
	if len(b.ring) > ringBufferLimit {
		b.ring = b.ring[len(b.ring)-ringBufferLimit:]
	}
}

// RecentOutput returns a snapshot of the rolling ANSI-stripped buffer.
func (b *ptyBridge) RecentOutput() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.ring)
}

// watchResize listens for SIGWINCH and resizes the PTY to match (§4.3
// step 5).
func (b *ptyBridge) watchResize() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		for {
			select {
			case <-b.stopResize:
				signal.Stop(ch)
				return
			case <-ch:
				_ = pty.Setsize(b.pty, currentWinsize())
			}
		}
	}()
	// Apply the current size once immediately in case it changed between
	// process start and the first SIGWINCH.
	_ = pty.Setsize(b.pty, currentWinsize())
}

// Write sends data directly to the PTY, used by the input long-poll loop
// (§4.3 step 9) to inject chat-originated text and synthesized keypresses.
func (b *ptyBridge) Write(data []byte) error {
	_, err := b.pty.Write(data)
	return err
}

// Signal delivers sig to the child process.
func (b *ptyBridge) Signal(sig os.Signal) error {
	if b.cmd.Process == nil {
		return nil
	}
	return b.cmd.Process.Signal(sig)
}

// Kill forcibly terminates the child process.
func (b *ptyBridge) Kill() error {
	if b.cmd.Process == nil {
		return nil
	}
	return b.cmd.Process.Kill()
}

// Wait blocks until the child exits and returns its exit code.
func (b *ptyBridge) Wait() int {
	err := b.cmd.Wait()
	close(b.stopResize)
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	_ = b.pty.Close()
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}

// ansiEscape holds the ESC byte that starts the CSI/OSC escape sequences
// emitted by interactive terminal UIs; stripANSI removes those sequences,
// which is good enough for the approval-prompt scan, which only needs
// printable text.
var ansiEscape = []byte{0x1b}

func stripANSI(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == ansiEscape[0] {
			// Skip the escape sequence: '[' ... letter, or ']' ... BEL/ST,
			// or a single following byte for other two-char sequences.
			i++
			if i >= len(b) {
				break
			}
			switch b[i] {
			case '[':
				i++
				for i < len(b) && !isCSITerminator(b[i]) {
					i++
				}
			case ']':
				i++
				for i < len(b) && b[i] != 0x07 {
					if b[i] == 0x1b && i+1 < len(b) && b[i+1] == '\\' {
						i++
						break
					}
					i++
				}
			}
			continue
		}
		out = append(out, b[i])
	}
	return out
}

func isCSITerminator(c byte) bool {
	return c >= 0x40 && c <= 0x7e
}
