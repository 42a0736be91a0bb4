// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tomtev/touchgrass/internal/outputpipeline"
	"github.com/tomtev/touchgrass/internal/paths"
	"github.com/tomtev/touchgrass/internal/transcript"
	"github.com/tomtev/touchgrass/internal/watcher"
	"github.com/tomtev/touchgrass/pkg/client"
)

// Options configures one `tg <tool>` invocation.
type Options struct {
	Tool        Tool
	Argv        []string // argv[0] is the tool binary name, argv[1:] are its own flags
	Cwd         string
	Home        *paths.Bundle
	UserHome    string // $HOME, for transcript directory discovery -- distinct from Home (TOUCHGRASS_HOME)
	Client      *client.Client
	OwnerUserID string
	Channel     string // --channel selector, resolved via resolveChannelSelector
	ResumeRef   string // pre-selected resume ref, if this invocation is itself a resume
}

// Wrapper owns one spawn of a wrapped tool: its PTY, its transcript
// tailer, its recovery controller, and the long-poll loop relaying chat
// input back into the PTY (§4.3).
type Wrapper struct {
	opts Options

	client    *client.Client
	sessionID string
	pty       *ptyBridge
	recovery  *recoveryController

	pendingResumeRef string
}

// Run implements §4.3 end to end: resolve a channel, register and bind,
// spawn the tool, tail its transcript, scan for approvals, relay chat
// input, and on exit either respawn for a resume or return the tool's
// exit code.
func Run(ctx context.Context, opts Options) (int, error) {
	w := &Wrapper{opts: opts, client: opts.Client}
	for {
		code, resume, err := w.runOnce(ctx)
		if err != nil {
			return code, err
		}
		if resume == "" {
			return code, nil
		}
		argv, ok := outputpipeline.RewriteResumeArgv(string(w.opts.Tool), w.opts.Argv, resume)
		if !ok {
			return code, fmt.Errorf("wrapper: cannot resume with ref %q", resume)
		}
		w.opts.Argv = argv
		w.opts.ResumeRef = resume
	}
}

// runOnce spawns the tool exactly once and blocks until it exits,
// returning its exit code and, if a resume control action was received,
// the ref to resume with.
func (w *Wrapper) runOnce(ctx context.Context) (exitCode int, resumeRef string, err error) {
	chatAddr, _, err := resolveChannelSelector(ctx, w.client, w.opts.Channel, w.opts.OwnerUserID)
	if err != nil {
		return 1, "", err
	}

	sess, err := w.client.Remote.Register(ctx, client.RegisterRequest{
		Command:     w.opts.Argv,
		Cwd:         w.opts.Cwd,
		ChatID:      chatAddr,
		OwnerUserID: w.opts.OwnerUserID,
	})
	if err != nil {
		return 1, "", fmt.Errorf("wrapper: register: %w", err)
	}
	w.sessionID = sess.ID
	w.recovery = newRecoveryController(w.client, client.RegisterRequest{
		Command:     w.opts.Argv,
		Cwd:         w.opts.Cwd,
		OwnerUserID: w.opts.OwnerUserID,
		ExistingID:  sess.ID,
	})
	if chatAddr != "" {
		w.recovery.noteBindChat(chatAddr)
	}

	if err := writeManifest(w.opts.Home, manifest{
		ID:        w.sessionID,
		Command:   w.opts.Argv,
		Cwd:       w.opts.Cwd,
		Pid:       os.Getpid(),
		StartedAt: time.Now(),
	}); err != nil {
		log.Printf("wrapper: write manifest: %v", err)
	}
	defer removeManifest(w.opts.Home, w.sessionID)

	dir := transcriptDir(w.opts.Tool, w.opts.UserHome, w.opts.Cwd)
	var before map[string]bool
	var resumePath string
	var haveResumePath bool
	if w.opts.ResumeRef != "" {
		resumePath, haveResumePath = locateResumeTranscript(w.opts.Tool, w.opts.UserHome, w.opts.Cwd, w.opts.ResumeRef)
	}
	if !haveResumePath {
		before = snapshotExisting(dir)
	}

	ptyB, err := spawnPTY(w.opts.Argv, w.opts.Cwd)
	if err != nil {
		return 1, "", fmt.Errorf("wrapper: spawn %v: %w", w.opts.Argv, err)
	}
	w.pty = ptyB

	tailCtx, cancelTail := context.WithCancel(ctx)
	stopTail := make(chan struct{})
	go w.runTranscript(tailCtx, dir, resumePath, haveResumePath, before, stopTail)

	stopApproval := make(chan struct{})
	if _, _, ok := w.opts.Tool.ApprovalPattern(); ok {
		go w.runApprovalScan(stopApproval)
	}

	inputCtx, cancelInput := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		w.runInputLoop(inputCtx)
		close(done)
	}()

	code := w.pty.Wait()

	cancelInput()
	<-done
	close(stopApproval)
	cancelTail()
	close(stopTail)

	_ = w.client.Remote.Exit(context.Background(), w.sessionID, code)

	return code, w.pendingResumeRef, nil
}

// runTranscript locates the tool's transcript file (pre-selected on
// resume, otherwise awaited after spawn) and tails it, forwarding every
// parsed event to the daemon (§4.3 steps 6-7).
func (w *Wrapper) runTranscript(ctx context.Context, dir, resumePath string, haveResumePath bool, before map[string]bool, stop <-chan struct{}) {
	path := resumePath
	if !haveResumePath {
		found, ok := awaitNewTranscript(w.opts.Tool, dir, before)
		if !ok {
			return
		}
		path = found
	}
	if err := updateManifestTranscript(w.opts.Home, w.sessionID, path); err != nil {
		log.Printf("wrapper: update manifest transcript: %v", err)
	}

	state := transcript.NewState()
	dialect := w.opts.Tool.Dialect()
	t := newTailer(path, func(line []byte) {
		ev, err := transcript.ParseLine(dialect, state, line)
		if err != nil {
			log.Printf("wrapper: parse transcript line: %v", err)
			return
		}
		w.forwardEvent(ctx, ev)
	})
	runTailLoop(t, stop)
}

// forwardEvent posts every non-empty field of ev to the daemon via the
// matching /remote/:id/* endpoint (§4.4, §4.7).
func (w *Wrapper) forwardEvent(ctx context.Context, ev transcript.Event) {
	if ev.IsEmpty() {
		return
	}
	if ev.AssistantText != "" {
		_ = w.client.Remote.Assistant(ctx, w.sessionID, ev.AssistantText)
	}
	if ev.Thinking != "" {
		_ = w.client.Remote.Thinking(ctx, w.sessionID, ev.Thinking)
	}
	for _, tc := range ev.ToolCalls {
		_ = w.client.Remote.ToolCall(ctx, w.sessionID, client.ToolCallPayload{
			ID: tc.ID, Name: tc.Name, Input: tc.Input,
		})
	}
	for _, tr := range ev.ToolResults {
		if !transcript.ShouldForwardToolResult(tr.ToolName, tr.Text, tr.IsError) {
			continue
		}
		_ = w.client.Remote.ToolResult(ctx, w.sessionID, client.ToolResultPayload{
			ToolUseID: tr.ToolUseID, ToolName: tr.ToolName, Text: tr.Text,
			IsError: tr.IsError, URLs: tr.URLs,
		})
	}
	for _, q := range ev.Questions {
		_, _ = w.client.Remote.Question(ctx, w.sessionID, q.Prompt, q.Options, q.MultiSelect)
	}
	for _, job := range ev.BackgroundJobEvents {
		_ = w.client.Remote.BackgroundJob(ctx, w.sessionID, client.BackgroundJobEvent{
			TaskID: job.TaskID, Status: job.Status, Command: job.Command, URLs: job.URLs,
		})
	}
}

// approvalScanInterval is how often the PTY's rolling output buffer is
// scanned for a fresh approval prompt (§4.3 step 8).
const approvalScanInterval = 500 * time.Millisecond

// approvalDebounceDelay separates detecting a prompt from posting it, so
// the tool's own redraw of the same prompt doesn't double-fire (§5).
const approvalDebounceDelay = time.Second

// approvalDebounceKey is the single key this wrapper's debouncer uses:
// one PTY has at most one approval prompt pending at a time.
const approvalDebounceKey = "approval"

// runApprovalScan scans the PTY's rolling buffer for non-Claude tools'
// approval prompts, posting each distinct one once the prompt has stopped
// changing for approvalDebounceDelay -- the tool's own redraw of an
// unchanged prompt must not fire a second poll (§4.3 step 8, §5).
func (w *Wrapper) runApprovalScan(stop <-chan struct{}) {
	debouncer := watcher.NewDebouncer(approvalDebounceDelay)
	defer debouncer.Stop()

	ticker := time.NewTicker(approvalScanInterval)
	defer ticker.Stop()
	var lastPrompt string
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			prompt, options, found := scanForApproval(w.opts.Tool, w.pty.RecentOutput())
			if !found || prompt == lastPrompt {
				continue
			}
			lastPrompt = prompt
			debouncer.Debounce(approvalDebounceKey, func() {
				_, _ = w.client.Remote.ApprovalNeeded(context.Background(), w.sessionID, prompt, options)
			})
		}
	}
}
