// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ClaudeProjectDir returns Claude's per-cwd transcript directory, encoding
// the working directory the same way the Claude CLI does: "/" and "."
// become "-" (e.g. "/Users/alice/src/app" -> "-Users-alice-src-app").
func ClaudeProjectDir(home, cwd string) string {
	encoded := strings.NewReplacer("/", "-", ".", "-").Replace(cwd)
	return filepath.Join(home, ".claude", "projects", encoded)
}

// PIProjectDir returns PI's per-cwd transcript directory. PI wraps the
// encoded cwd in a literal "--...--" pair rather than Claude's bare prefix.
func PIProjectDir(home, cwd string) string {
	trimmed := strings.TrimPrefix(cwd, "/")
	encoded := strings.ReplaceAll(trimmed, "/", "-")
	return filepath.Join(home, ".pi", "agent", "sessions", "--"+encoded+"--")
}

// KimiSessionDir returns Kimi's per-cwd session directory, keyed by the
// MD5 digest of the absolute cwd.
func KimiSessionDir(home, cwd string) string {
	sum := md5.Sum([]byte(cwd))
	return filepath.Join(home, ".kimi", "sessions", hex.EncodeToString(sum[:]))
}

// KimiWirePath returns the wire.jsonl path for a specific Kimi session id.
func KimiWirePath(home, cwd, sessionID string) string {
	return filepath.Join(KimiSessionDir(home, cwd), sessionID, "wire.jsonl")
}

// ListJSONLFiles returns the ".jsonl" files directly under dir, or nil if
// dir does not exist.
func ListJSONLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// CodexSessionRoots walks ~/.codex/sessions/YYYY/MM/DD directories in
// date-lexicographic descending order, matching §6's discovery rule.
func CodexSessionRoots(home string) ([]string, error) {
	base := filepath.Join(home, ".codex", "sessions")
	years, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dayDirs []string
	for _, y := range years {
		if !y.IsDir() {
			continue
		}
		months, err := os.ReadDir(filepath.Join(base, y.Name()))
		if err != nil {
			continue
		}
		for _, mo := range months {
			if !mo.IsDir() {
				continue
			}
			days, err := os.ReadDir(filepath.Join(base, y.Name(), mo.Name()))
			if err != nil {
				continue
			}
			for _, d := range days {
				if d.IsDir() {
					dayDirs = append(dayDirs, filepath.Join(base, y.Name(), mo.Name(), d.Name()))
				}
			}
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dayDirs)))
	return dayDirs, nil
}

// FindCodexTranscript walks the Codex session roots newest-first and
// returns the path of the file matching idSubstring (or, if idSubstring is
// empty, the single newest file found).
func FindCodexTranscript(home, idSubstring string) (string, error) {
	roots, err := CodexSessionRoots(home)
	if err != nil {
		return "", err
	}
	var newest string
	for _, dir := range roots {
		files, err := ListJSONLFiles(dir)
		if err != nil {
			continue
		}
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
		for _, f := range files {
			if idSubstring != "" && strings.Contains(f, idSubstring) {
				return f, nil
			}
			if newest == "" {
				newest = f
			}
		}
		if idSubstring == "" && newest != "" {
			return newest, nil
		}
	}
	return newest, nil
}
