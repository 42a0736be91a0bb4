// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtev/touchgrass/internal/addressing"
)

func TestRegisterRemoteIdempotentOnExistingID(t *testing.T) {
	m := NewManager()
	s1 := m.RegisterRemote([]string{"claude"}, "telegram:1", "telegram:1", "/tmp", "")
	s2 := m.RegisterRemote([]string{"claude", "--resume", "x"}, "telegram:2", "telegram:2", "/other", s1.ID)
	assert.Equal(t, s1.ID, s2.ID)
	assert.Equal(t, s1.Cwd, s2.Cwd, "existing record returned unchanged")
}

// P1: after attach(c, s.id), no other session maps c.
func TestAttachExclusivity(t *testing.T) {
	m := NewManager()
	s1 := m.RegisterRemote([]string{"claude"}, "telegram:1", "telegram:1", "/a", "")
	s2 := m.RegisterRemote([]string{"claude"}, "telegram:2", "telegram:2", "/b", "")

	require.True(t, m.Attach("telegram:9", s1.ID))
	require.True(t, m.Attach("telegram:9", s2.ID))

	bound, ok := m.GetBoundChat(s1.ID)
	assert.False(t, ok)
	assert.Empty(t, bound)

	bound2, ok := m.GetBoundChat(s2.ID)
	assert.True(t, ok)
	assert.Equal(t, addressing.ChatID("telegram:9"), bound2)
}

// P2: [stop, resume(R), kill] merged in any order drains to resume(R).
func TestControlActionPrecedence(t *testing.T) {
	orders := [][]ControlAction{
		{{Kind: ControlStop}, {Kind: ControlResume, SessionRef: "R"}, {Kind: ControlKill}},
		{{Kind: ControlKill}, {Kind: ControlStop}, {Kind: ControlResume, SessionRef: "R"}},
		{{Kind: ControlResume, SessionRef: "R"}, {Kind: ControlKill}, {Kind: ControlStop}},
	}
	for _, seq := range orders {
		m := NewManager()
		s := m.RegisterRemote([]string{"claude"}, "telegram:1", "telegram:1", "/a", "")
		for _, a := range seq {
			m.requestControl(s.ID, a)
		}
		action, ok := m.DrainRemoteControl(s.ID)
		require.True(t, ok)
		require.NotNil(t, action)
		assert.Equal(t, ControlResume, action.Kind)
		assert.Equal(t, "R", action.SessionRef)
	}
}

// P3: drainRemoteInput/drainRemoteControl are idempotent.
func TestDrainIsIdempotent(t *testing.T) {
	m := NewManager()
	s := m.RegisterRemote([]string{"claude"}, "telegram:1", "telegram:1", "/a", "")
	m.QueueInput(s.ID, "hello")
	m.RequestRemoteStop(s.ID)

	lines, ok := m.DrainRemoteInput(s.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"hello"}, lines)

	lines2, ok := m.DrainRemoteInput(s.ID)
	require.True(t, ok)
	assert.Empty(t, lines2)

	action, ok := m.DrainRemoteControl(s.ID)
	require.True(t, ok)
	assert.NotNil(t, action)

	action2, ok := m.DrainRemoteControl(s.ID)
	require.True(t, ok)
	assert.Nil(t, action2)
}

// P4: getBoundChat returns the non-DM chat whenever one is attached,
// regardless of whether the owner DM is also attached.
func TestGetBoundChatNonDMWins(t *testing.T) {
	m := NewManager()
	s := m.RegisterRemote([]string{"claude"}, "telegram:1", "telegram:1", "/a", "")

	require.True(t, m.Attach("telegram:1", s.ID))       // owner DM
	require.True(t, m.Attach("telegram:-100555", s.ID)) // group

	bound, ok := m.GetBoundChat(s.ID)
	require.True(t, ok)
	assert.Equal(t, addressing.ChatID("telegram:-100555"), bound)
}

func TestDetachRemovesGroupMembership(t *testing.T) {
	m := NewManager()
	s := m.RegisterRemote([]string{"claude"}, "telegram:1", "telegram:1", "/a", "")
	require.True(t, m.SubscribeGroup(s.ID, "telegram:-100555"))
	require.True(t, m.Detach("telegram:-100555"))

	_, _, groups := m.BoundAndGroups(s.ID)
	assert.NotContains(t, groups, addressing.ChatID("telegram:-100555"))
}

func TestPendingFileMentionsConsumedOnce(t *testing.T) {
	m := NewManager()
	s := m.RegisterRemote([]string{"claude"}, "telegram:1", "telegram:1", "/a", "")
	m.SetPendingFileMentions(s.ID, "telegram:1", "telegram:1", []string{"a.go", "b.go"})

	got := m.ConsumePendingFileMentions(s.ID, "telegram:1", "telegram:1")
	assert.Equal(t, []string{"a.go", "b.go"}, got)

	got2 := m.ConsumePendingFileMentions(s.ID, "telegram:1", "telegram:1")
	assert.Empty(t, got2)
}

func TestReapStaleRemotesDetachesAndClears(t *testing.T) {
	m := NewManager()
	s := m.RegisterRemote([]string{"claude"}, "telegram:1", "telegram:1", "/a", "")
	require.True(t, m.Attach("telegram:1", s.ID))
	m.PutFlow(&PendingFlow{PollID: "p1", Kind: FlowApprovalPoll, SessionID: s.ID})

	// Force staleness.
	m.mu.Lock()
	m.sessions[s.ID].LastSeenAt = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	reaped := m.ReapStaleRemotes(time.Minute)
	require.Len(t, reaped, 1)
	assert.Equal(t, s.ID, reaped[0].Session.ID)
	assert.True(t, reaped[0].WasAttached)

	_, ok := m.Get(s.ID)
	assert.False(t, ok)
	_, ok = m.GetFlow("p1")
	assert.False(t, ok)
}

func TestCanUserAccessSessionOwnerOnly(t *testing.T) {
	m := NewManager()
	s := m.RegisterRemote([]string{"claude"}, "telegram:1", "telegram:1", "/a", "")
	assert.True(t, m.CanUserAccessSession("telegram:1", s.ID))
	assert.False(t, m.CanUserAccessSession("telegram:2", s.ID))
}

func TestJobCacheEvictsOldestPastCap(t *testing.T) {
	m := NewManager()
	s := m.RegisterRemote([]string{"claude"}, "telegram:1", "telegram:1", "/a", "")
	for i := 0; i < 201; i++ {
		m.UpsertJob(s.ID, BackgroundJob{TaskID: string(rune('a' + i%26)) + string(rune(i)), Status: JobRunning})
	}
	jobs := m.JobsForSession(s.ID)
	assert.LessOrEqual(t, len(jobs), 200)
}
