// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"sync"
	"time"

	"github.com/tomtev/touchgrass/internal/addressing"
)

// Manager holds all in-memory state from §3 behind a single mutex. Every
// operation is a short, constant-time critical section; no lock is ever
// held across HTTP calls or file I/O (§5) -- callers that need to await the
// network snapshot what they need and release the lock first.
type Manager struct {
	mu sync.Mutex

	sessions    map[string]*RemoteSession
	attachments map[addressing.ChatID]string
	groupSubs   map[string]map[addressing.ChatID]bool

	mentions map[mentionKey][]string
	flows    map[string]*PendingFlow
	jobs     map[string]map[string]*BackgroundJob
	boards   map[boardKey]*StatusBoardState
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{
		sessions:    make(map[string]*RemoteSession),
		attachments: make(map[addressing.ChatID]string),
		groupSubs:   make(map[string]map[addressing.ChatID]bool),
		mentions:    make(map[mentionKey][]string),
		flows:       make(map[string]*PendingFlow),
		jobs:        make(map[string]map[string]*BackgroundJob),
		boards:      make(map[boardKey]*StatusBoardState),
	}
}

// RegisterRemote registers a new remote session, or returns the existing
// record unchanged when existingID names a session already known -- the
// idempotence recovery (§4.8) relies on.
func (m *Manager) RegisterRemote(command []string, chatID addressing.ChatID, ownerUserID addressing.UserID, cwd, existingID string) *RemoteSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existingID != "" {
		if s, ok := m.sessions[existingID]; ok {
			return s
		}
	}

	id := existingID
	if id == "" {
		id = newSessionID()
	}

	s := &RemoteSession{
		ID:          id,
		Command:     append([]string(nil), command...),
		Cwd:         cwd,
		ChatID:      chatID,
		OwnerUserID: ownerUserID,
		CreatedAt:   time.Now(),
		LastSeenAt:  time.Now(),
	}
	m.sessions[id] = s
	return s
}

// Get returns the session by id.
func (m *Manager) Get(id string) (*RemoteSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

// EndRemote removes a session entirely (the wrapper exited), detaching any
// attached chat and clearing its group subscriptions, pending flows, file
// mentions and jobs. Status-board records are keyed by chat, not session,
// and are left in place.
func (m *Manager) EndRemote(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endRemoteLocked(id)
}

func (m *Manager) endRemoteLocked(id string) {
	if _, ok := m.sessions[id]; !ok {
		return
	}
	for chatID, sid := range m.attachments {
		if sid == id {
			delete(m.attachments, chatID)
		}
	}
	delete(m.groupSubs, id)
	delete(m.jobs, id)
	for pollID, f := range m.flows {
		if f.SessionID == id {
			delete(m.flows, pollID)
		}
	}
	for k := range m.mentions {
		if k.SessionID == id {
			delete(m.mentions, k)
		}
	}
	delete(m.sessions, id)
}

// Attach binds chatID to sessionID (I3): any prior attachment of chatID is
// replaced, and chatID is removed from every other session's group-sub set.
func (m *Manager) Attach(chatID addressing.ChatID, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return false
	}

	delete(m.attachments, chatID)
	for sid, set := range m.groupSubs {
		if sid == sessionID {
			continue
		}
		delete(set, chatID)
	}

	m.attachments[chatID] = sessionID
	return true
}

// Detach removes chatID's attachment and any group-subscription membership,
// reporting whether the chat had either.
func (m *Manager) Detach(chatID addressing.ChatID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, had := m.attachments[chatID]
	delete(m.attachments, chatID)
	for _, set := range m.groupSubs {
		if set[chatID] {
			had = true
		}
		delete(set, chatID)
	}
	return had
}

// AttachedSession returns the session chatID is currently attached to, if
// any -- the inverse of Attach, used by the command router to resolve
// "the session this chat's input is currently going to" (§4.6 step 7).
func (m *Manager) AttachedSession(chatID addressing.ChatID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.attachments[chatID]
	return id, ok
}

// GetBoundChat returns the chat output should be sent to for sessionID. A
// non-DM chat always wins over the owner DM when both are attached (P4).
func (m *Manager) GetBoundChat(sessionID string) (addressing.ChatID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dm, other addressing.ChatID
	var haveDM, haveOther bool

	for chatID, sid := range m.attachments {
		if sid != sessionID {
			continue
		}
		addr, err := addressing.ParseChatID(chatID)
		if err == nil && addressing.IsGroup(addr) {
			other = chatID
			haveOther = true
		} else {
			dm = chatID
			haveDM = true
		}
	}

	if haveOther {
		return other, true
	}
	if haveDM {
		return dm, true
	}
	return "", false
}

// BoundAndGroups returns a consistent snapshot of (bound chat, subscribed
// groups) for fan-out, releasing the lock before the caller awaits the
// network (§5/§9 "State sharing").
func (m *Manager) BoundAndGroups(sessionID string) (bound addressing.ChatID, hasBound bool, groups []addressing.ChatID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for chatID, sid := range m.attachments {
		if sid != sessionID {
			continue
		}
		addr, err := addressing.ParseChatID(chatID)
		if err == nil && addressing.IsGroup(addr) {
			groups = append(groups, chatID)
		} else {
			bound, hasBound = chatID, true
		}
	}
	for g := range m.groupSubs[sessionID] {
		groups = append(groups, g)
	}
	return bound, hasBound, groups
}

func (m *Manager) requestControl(id string, action ControlAction) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.ControlAction = mergeControlAction(s.ControlAction, action)
	return true
}

// RequestRemoteStop merges a stop control action into the session.
func (m *Manager) RequestRemoteStop(id string) bool {
	return m.requestControl(id, ControlAction{Kind: ControlStop})
}

// RequestRemoteKill merges a kill control action into the session.
func (m *Manager) RequestRemoteKill(id string) bool {
	return m.requestControl(id, ControlAction{Kind: ControlKill})
}

// RequestRemoteResume merges a resume control action carrying ref.
func (m *Manager) RequestRemoteResume(id, ref string) bool {
	return m.requestControl(id, ControlAction{Kind: ControlResume, SessionRef: ref})
}

// QueueInput appends line to the session's input queue (FIFO delivery, §5).
func (m *Manager) QueueInput(id, line string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.InputQueue = append(s.InputQueue, line)
	return true
}

// DrainRemoteInput returns and clears the queued input lines, updating
// lastSeenAt. Idempotent: an immediate second call returns an empty slice (P3).
func (m *Manager) DrainRemoteInput(id string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.LastSeenAt = time.Now()
	lines := s.InputQueue
	s.InputQueue = nil
	return lines, true
}

// DrainRemoteControl returns and clears the pending control action,
// updating lastSeenAt. Idempotent (P3, I5): reading clears it atomically.
func (m *Manager) DrainRemoteControl(id string) (*ControlAction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.LastSeenAt = time.Now()
	action := s.ControlAction
	s.ControlAction = nil
	return action, true
}

// SubscribeGroup adds chatID to sessionID's group fan-out set.
func (m *Manager) SubscribeGroup(sessionID string, chatID addressing.ChatID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return false
	}
	set, ok := m.groupSubs[sessionID]
	if !ok {
		set = make(map[addressing.ChatID]bool)
		m.groupSubs[sessionID] = set
	}
	set[chatID] = true
	return true
}

// UnsubscribeGroup removes chatID from sessionID's group fan-out set.
func (m *Manager) UnsubscribeGroup(sessionID string, chatID addressing.ChatID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.groupSubs[sessionID]
	if !ok {
		return false
	}
	delete(set, chatID)
	return true
}

// SetPendingFileMentions records file mentions pending consumption by the
// next plain-text input from (sessionID, chatID, userID).
func (m *Manager) SetPendingFileMentions(sessionID string, chatID addressing.ChatID, userID addressing.UserID, mentions []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mentions[mentionKey{sessionID, chatID, userID}] = mentions
}

// ConsumePendingFileMentions returns and clears any pending mentions for the
// triple.
func (m *Manager) ConsumePendingFileMentions(sessionID string, chatID addressing.ChatID, userID addressing.UserID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := mentionKey{sessionID, chatID, userID}
	mentions := m.mentions[k]
	delete(m.mentions, k)
	return mentions
}

// ReapStaleRemotes removes every session whose lastSeenAt is older than
// maxAge, returning the removed sessions plus their bound chat so the
// caller can notify them.
func (m *Manager) ReapStaleRemotes(maxAge time.Duration) []ReapedSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var stale []string
	for id, s := range m.sessions {
		if s.LastSeenAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}

	var out []ReapedSession
	for _, id := range stale {
		s := *m.sessions[id]
		bound, has := addressing.ChatID(""), false
		for chatID, sid := range m.attachments {
			if sid == id {
				addr, err := addressing.ParseChatID(chatID)
				if err == nil && !addressing.IsGroup(addr) {
					bound, has = chatID, true
				}
			}
		}
		out = append(out, ReapedSession{Session: s, BoundChatID: bound, WasAttached: has})
		m.endRemoteLocked(id)
	}
	return out
}

// CanUserAccessSession reports whether userID is the owner of sessionID.
func (m *Manager) CanUserAccessSession(userID addressing.UserID, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return false
	}
	return s.OwnerUserID == userID
}

// Sessions returns a snapshot slice of every live session.
func (m *Manager) Sessions() []RemoteSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RemoteSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out
}

// SessionsForOwner returns sessions owned by userID.
func (m *Manager) SessionsForOwner(userID addressing.UserID) []RemoteSession {
	all := m.Sessions()
	out := all[:0]
	for _, s := range all {
		if s.OwnerUserID == userID {
			out = append(out, s)
		}
	}
	return out
}
