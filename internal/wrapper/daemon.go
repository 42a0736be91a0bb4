// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/tomtev/touchgrass/internal/paths"
	"github.com/tomtev/touchgrass/pkg/client"
)

// daemonStartTimeout bounds how long EnsureDaemon waits for a freshly
// spawned daemon to answer /health.
const daemonStartTimeout = 10 * time.Second

// EnsureDaemon implements §4.3 step 2: start the daemon if nothing answers
// its health endpoint; if one does answer but the daemon binary on disk is
// newer than the daemon's startedAt *and* no sessions are currently active, restart
// it so the wrapper always talks to current code. An active daemon with
// live sessions is left alone even if stale -- killing it mid-session
// would orphan every other wrapper's long-poll.
func EnsureDaemon(ctx context.Context, home *paths.Bundle, c *client.Client, daemonBinary string) error {
	pid, startedAt, err := c.Health(ctx)
	if err != nil {
		return spawnDaemon(ctx, home, c, daemonBinary)
	}

	mtime, mtimeErr := selfMtime(daemonBinary)
	if mtimeErr != nil || !mtime.After(startedAt) {
		return nil
	}

	status, err := c.Status(ctx)
	if err != nil || len(status.Sessions) > 0 {
		// Can't confirm it's idle, or it demonstrably isn't: leave the
		// running daemon (with pid) alone.
		_ = pid
		return nil
	}

	if err := c.Shutdown(ctx); err != nil {
		return fmt.Errorf("wrapper: shutting down stale daemon: %w", err)
	}
	waitForDaemonExit(ctx, c)
	return spawnDaemon(ctx, home, c, daemonBinary)
}

// selfMtime returns the modification time of the daemon binary, used as a
// proxy for "code has been updated" (§4.3 step 2).
func selfMtime(daemonBinary string) (time.Time, error) {
	info, err := os.Stat(daemonBinary)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// spawnDaemon forks the daemon binary detached from this process and
// waits for /health to respond.
func spawnDaemon(ctx context.Context, home *paths.Bundle, c *client.Client, daemonBinary string) error {
	cmd := exec.Command(daemonBinary)
	cmd.Env = append(os.Environ(), "TOUCHGRASS_HOME="+home.Home)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("wrapper: start daemon: %w", err)
	}
	_ = cmd.Process.Release()

	deadline := time.Now().Add(daemonStartTimeout)
	for time.Now().Before(deadline) {
		if _, _, err := c.Health(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("wrapper: daemon did not become healthy within %s", daemonStartTimeout)
}

// waitForDaemonExit blocks briefly until /health stops responding,
// confirming a requested shutdown actually landed before respawning.
func waitForDaemonExit(ctx context.Context, c *client.Client) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, err := c.Health(ctx); err != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}
