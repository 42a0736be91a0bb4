// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	ps "github.com/mitchellh/go-ps"
)

// WritePidFile writes the current process id to b.PidFile with 0600
// permissions.
func (b *Bundle) WritePidFile() error {
	return os.WriteFile(b.PidFile, []byte(strconv.Itoa(os.Getpid())), 0600)
}

// ReadPidFile returns the pid recorded in b.PidFile, or 0 if absent/invalid.
func (b *Bundle) ReadPidFile() int {
	data, err := os.ReadFile(b.PidFile)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// RemovePidFile deletes the pid file, ignoring a not-exist error.
func (b *Bundle) RemovePidFile() error {
	err := os.Remove(b.PidFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// KillDuplicateDaemons enumerates system processes, finds any other
// process whose executable name contains daemonArgHint, and sends SIGTERM
// followed by SIGKILL 200ms later to any that are still alive -- the
// startup sweep described in spec §5. Matching is by executable name only:
// command lines and home directories are not inspected, so a daemon
// running for a different TOUCHGRASS_HOME is swept as well.
func (b *Bundle) KillDuplicateDaemons(daemonArgHint string) error {
	procs, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("enumerate processes: %w", err)
	}

	self := os.Getpid()
	var victims []int
	for _, p := range procs {
		if p.Pid() == self {
			continue
		}
		exe := p.Executable()
		if !strings.Contains(exe, daemonArgHint) {
			continue
		}
		victims = append(victims, p.Pid())
	}

	for _, pid := range victims {
		proc, err := os.FindProcess(pid)
		if err != nil {
			continue
		}
		_ = proc.Signal(syscall.SIGTERM)
	}
	if len(victims) == 0 {
		return nil
	}

	time.Sleep(200 * time.Millisecond)
	for _, pid := range victims {
		proc, err := os.FindProcess(pid)
		if err != nil {
			continue
		}
		if proc.Signal(syscall.Signal(0)) == nil {
			_ = proc.Signal(syscall.SIGKILL)
		}
	}
	return nil
}

// IsAlive reports whether pid refers to a running process.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// EPERM means the process exists but belongs to another user.
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
