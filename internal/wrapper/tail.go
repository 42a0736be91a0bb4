// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tomtev/touchgrass/internal/transcript"
)

// transcriptDir returns the directory the wrapper should watch for new
// JSONL files for tool, rooted at home (the user's home directory, not
// TOUCHGRASS_HOME), per §6's per-tool discovery rules. For Kimi this is the
// per-project session directory; each session's wire.jsonl sits in its own
// subdirectory there, which findNewFile scans.
func transcriptDir(tool Tool, home, cwd string) string {
	switch tool {
	case ToolClaude:
		return transcript.ClaudeProjectDir(home, cwd)
	case ToolPI:
		return transcript.PIProjectDir(home, cwd)
	case ToolKimi:
		return transcript.KimiSessionDir(home, cwd)
	case ToolCodex:
		return filepath.Join(home, ".codex", "sessions")
	default:
		return ""
	}
}

// snapshotExisting lists the ".jsonl" files already present in dir before
// the tool is spawned, so locateNewTranscript can recognize which file is
// genuinely new (§4.3 step 6).
func snapshotExisting(dir string) map[string]bool {
	seen := make(map[string]bool)
	files, _ := transcript.ListJSONLFiles(dir)
	for _, f := range files {
		seen[f] = true
	}
	// Kimi nests one directory per session id under dir; snapshot those
	// subdirectories' wire.jsonl too, if any already exist.
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				wire := filepath.Join(dir, e.Name(), "wire.jsonl")
				if _, err := os.Stat(wire); err == nil {
					seen[wire] = true
				}
			}
		}
	}
	return seen
}

// locateResumeTranscript pre-selects the transcript file matching a resume
// ref before the tool is even spawned (§4.3 step 6 "on resume").
func locateResumeTranscript(tool Tool, home, cwd, ref string) (string, bool) {
	switch tool {
	case ToolCodex:
		path, err := transcript.FindCodexTranscript(home, ref)
		return path, err == nil && path != ""
	case ToolKimi:
		path := transcript.KimiWirePath(home, cwd, ref)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		return "", false
	default:
		dir := transcriptDir(tool, home, cwd)
		files, _ := transcript.ListJSONLFiles(dir)
		for _, f := range files {
			if bytes.Contains([]byte(filepath.Base(f)), []byte(ref)) {
				return f, true
			}
		}
		return "", false
	}
}

// newTranscriptPollInterval and newTranscriptTimeout bound the directory
// scan that waits for the tool to create its transcript after spawn (§4.3
// step 6: "for 30s after spawn, poll ... every 500ms").
const (
	newTranscriptPollInterval = 500 * time.Millisecond
	newTranscriptTimeout      = 30 * time.Second
)

// awaitNewTranscript polls dir until a ".jsonl" file not present in
// before appears, or until timeout elapses. Codex and Kimi nest their
// files one directory deeper (date folders, session-id folders
// respectively), so the scan descends one level for those tools.
func awaitNewTranscript(tool Tool, dir string, before map[string]bool) (string, bool) {
	deadline := time.Now().Add(newTranscriptTimeout)
	for time.Now().Before(deadline) {
		if path, ok := findNewFile(tool, dir, before); ok {
			return path, true
		}
		time.Sleep(newTranscriptPollInterval)
	}
	return "", false
}

func findNewFile(tool Tool, dir string, before map[string]bool) (string, bool) {
	switch tool {
	case ToolCodex:
		// CodexSessionRoots wants the home dir, not the sessions dir
		// itself (dir here is "<home>/.codex/sessions").
		home := filepath.Dir(filepath.Dir(dir))
		roots, err := transcript.CodexSessionRoots(home)
		if err != nil {
			return "", false
		}
		for _, root := range roots {
			files, _ := transcript.ListJSONLFiles(root)
			for _, f := range files {
				if !before[f] {
					return f, true
				}
			}
		}
		return "", false
	case ToolKimi:
		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", false
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			wire := filepath.Join(dir, e.Name(), "wire.jsonl")
			if before[wire] {
				continue
			}
			if _, err := os.Stat(wire); err == nil {
				return wire, true
			}
		}
		return "", false
	default:
		files, err := transcript.ListJSONLFiles(dir)
		if err != nil {
			return "", false
		}
		sort.Strings(files)
		for _, f := range files {
			if !before[f] {
				return f, true
			}
		}
		return "", false
	}
}

// tailer incrementally reads a single transcript file, handling
// truncation and feeding complete lines to a callback (§4.3 step 7).
type tailer struct {
	path    string
	offset  int64
	partial []byte
	onLine  func(line []byte)
}

func newTailer(path string, onLine func([]byte)) *tailer {
	return &tailer{path: path, onLine: onLine}
}

// poll reads [offset, size) from the file in one pass, splitting on '\n'.
// A truncated file (size < offset) resets the tailer to start from 0,
// discarding any buffered partial line (§4.3 step 7).
func (t *tailer) poll() error {
	f, err := os.Open(t.path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size < t.offset {
		t.offset = 0
		t.partial = nil
	}
	if size == t.offset {
		return nil
	}

	if _, err := f.Seek(t.offset, 0); err != nil {
		return err
	}
	reader := bufio.NewReader(io.LimitReader(f, size-t.offset))
	for {
		chunk, err := reader.ReadBytes('\n')
		if len(chunk) > 0 {
			if err == nil {
				full := append(t.partial, chunk...)
				t.partial = nil
				t.onLine(bytes.TrimRight(full, "\r\n"))
			} else {
				t.partial = append(t.partial, chunk...)
			}
		}
		if err != nil {
			break
		}
	}
	t.offset = size
	return nil
}

// runTailLoop drives poll on both fsnotify write events and a fallback
// ticker (§4.3 step 7: "watcher events and a 2s fallback poll"), until
// stop is closed.
func runTailLoop(t *tailer, stop <-chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		_ = watcher.Add(filepath.Dir(t.path))
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	_ = t.poll()
	for {
		select {
		case <-stop:
			_ = t.poll()
			return
		case <-ticker.C:
			_ = t.poll()
		case ev, ok := <-watcherEvents(watcher):
			if !ok {
				continue
			}
			if ev.Name == t.path && (ev.Op&(fsnotify.Write|fsnotify.Create) != 0) {
				_ = t.poll()
			}
		}
	}
}

// watcherEvents returns w's event channel, or a nil channel (which blocks
// forever in a select) when w is nil -- e.g. when the watcher failed to
// construct, so the tailer still works off the fallback ticker alone.
func watcherEvents(w *fsnotify.Watcher) chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}
