// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package paths resolves TOUCHGRASS_HOME and the well-known files and
// directories beneath it.
package paths

import (
	"os"
	"path/filepath"
)

// Bundle is the set of well-known paths under TOUCHGRASS_HOME (§6).
type Bundle struct {
	Home string

	ConfigFile       string
	PidFile          string
	LockFile         string
	SocketFile       string
	PortFile         string
	AuthFile         string
	LogDir           string
	LogFile          string
	SessionsDir       string
	UploadsDir        string
	HooksDir          string
	ClaudeHookScript  string
	StatusBoardsFile  string
}

// Resolve builds a Bundle rooted at TOUCHGRASS_HOME, defaulting to
// ~/.touchgrass when the env var is unset.
func Resolve() (*Bundle, error) {
	home := os.Getenv("TOUCHGRASS_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		home = filepath.Join(userHome, ".touchgrass")
	}
	return ResolveIn(home), nil
}

// ResolveIn builds a Bundle rooted at an explicit home directory; used by
// tests that want an isolated TOUCHGRASS_HOME.
func ResolveIn(home string) *Bundle {
	return &Bundle{
		Home:             home,
		ConfigFile:       filepath.Join(home, "config.json"),
		PidFile:          filepath.Join(home, "daemon.pid"),
		LockFile:         filepath.Join(home, "daemon.lock"),
		SocketFile:       filepath.Join(home, "daemon.sock"),
		PortFile:         filepath.Join(home, "daemon.port"),
		AuthFile:         filepath.Join(home, "daemon.auth"),
		LogDir:           filepath.Join(home, "logs"),
		LogFile:          filepath.Join(home, "logs", "daemon.log"),
		SessionsDir:      filepath.Join(home, "sessions"),
		UploadsDir:       filepath.Join(home, "uploads"),
		HooksDir:         filepath.Join(home, "hooks"),
		ClaudeHookScript: filepath.Join(home, "hooks", "claude-hooks.sh"),
		StatusBoardsFile: filepath.Join(home, "status-boards.json"),
	}
}

// EnsureDirs creates every directory the Bundle references, matching the
// file-mode conventions in spec §6 (0700 for directories that hold 0600
// secrets, 0755 for the hooks dir which must be executable by the shell).
func (b *Bundle) EnsureDirs() error {
	for _, dir := range []string{b.Home, b.LogDir, b.SessionsDir, b.UploadsDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return os.MkdirAll(b.HooksDir, 0755)
}

// SessionManifestPath returns the per-session manifest file path.
func (b *Bundle) SessionManifestPath(sessionID string) string {
	return filepath.Join(b.SessionsDir, sessionID+".json")
}
