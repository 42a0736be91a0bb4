// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"time"

	"github.com/tomtev/touchgrass/internal/addressing"
)

// PutFlow registers a pending interactive flow keyed by its pollId.
func (m *Manager) PutFlow(f *PendingFlow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	m.flows[f.PollID] = f
}

// GetFlow returns the pending flow for pollID, if any.
func (m *Manager) GetFlow(pollID string) (*PendingFlow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[pollID]
	return f, ok
}

// ClearFlow removes a pending flow once it has been answered or closed.
func (m *Manager) ClearFlow(pollID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flows, pollID)
}

// FlowForSession returns the most recently created pending flow of kind for
// sessionID, used to find an open approval poll when routing free text.
func (m *Manager) FlowForSession(sessionID string, kind FlowKind) (*PendingFlow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *PendingFlow
	for _, f := range m.flows {
		if f.SessionID != sessionID || f.Kind != kind {
			continue
		}
		if best == nil || f.CreatedAt.After(best.CreatedAt) {
			best = f
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// UpsertJob creates or updates a background job record for sessionID,
// evicting the oldest entry when the per-session cache would exceed 200
// (§5 LRU cap).
func (m *Manager) UpsertJob(sessionID string, job BackgroundJob) {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs, ok := m.jobs[sessionID]
	if !ok {
		jobs = make(map[string]*BackgroundJob)
		m.jobs[sessionID] = jobs
	}
	job.UpdatedAt = time.Now()
	jobs[job.TaskID] = &job

	const maxJobs = 200
	if len(jobs) > maxJobs {
		var oldestID string
		var oldestAt time.Time
		for id, j := range jobs {
			if oldestAt.IsZero() || j.UpdatedAt.Before(oldestAt) {
				oldestID, oldestAt = id, j.UpdatedAt
			}
		}
		delete(jobs, oldestID)
	}
}

// JobsForSession returns a snapshot of all background jobs for sessionID.
func (m *Manager) JobsForSession(sessionID string) []BackgroundJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := m.jobs[sessionID]
	out := make([]BackgroundJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, *j)
	}
	return out
}

// UpsertBoard records or replaces the daemon's knowledge of a status-board
// message.
func (m *Manager) UpsertBoard(chatID addressing.ChatID, key string, board StatusBoardState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[boardKey{chatID, key}] = &board
}

// GetBoard returns the current status-board record, if any.
func (m *Manager) GetBoard(chatID addressing.ChatID, key string) (StatusBoardState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[boardKey{chatID, key}]
	if !ok {
		return StatusBoardState{}, false
	}
	return *b, true
}

// ClearBoard removes the daemon's record of a status-board message.
func (m *Manager) ClearBoard(chatID addressing.ChatID, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.boards, boardKey{chatID, key})
}
