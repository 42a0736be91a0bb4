// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tomtev/touchgrass/pkg/client"
)

// recoveryState names the two states (idle, recovering) of the §4.8 state
// machine.
type recoveryState int

const (
	recoveryIdle recoveryState = iota
	recoveryRecovering
)

// recoveryBackoffMin/Max bound the exponential backoff between re-register
// attempts while the daemon doesn't recognize the wrapper's session id.
const (
	recoveryBackoffMin = 250 * time.Millisecond
	recoveryBackoffMax = 10 * time.Second
)

// recoveryController runs the idle -> recovering -> idle state machine
// from §4.8: when the daemon's /remote/:id/input reports {unknown:true},
// it re-registers with the same id (idempotent per §4.1) and rebinds the
// chat the wrapper last knew about. Group subscriptions are not tracked by
// the wrapper and are not re-created. Ordinary per-poll logging
// is suppressed while recovering, matching the spec's "suppresses
// ordinary logging during recovery to avoid alarm spam."
type recoveryController struct {
	mu      sync.Mutex
	state   recoveryState
	backoff time.Duration

	client       *client.Client
	register     client.RegisterRequest
	lastChatID   string
	onReregister func(sessionID string)
}

func newRecoveryController(c *client.Client, req client.RegisterRequest) *recoveryController {
	return &recoveryController{
		client:   c,
		register: req,
		backoff:  recoveryBackoffMin,
		state:    recoveryIdle,
	}
}

// onKnown resets the state machine to idle once the daemon recognizes the
// session again.
func (r *recoveryController) onKnown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == recoveryRecovering {
		log.Printf("wrapper: recovery complete, daemon recognizes session %s again", r.register.ExistingID)
	}
	r.state = recoveryIdle
	r.backoff = recoveryBackoffMin
}

// onUnknown drives one recovery attempt: re-register (idempotent on
// ExistingID), rebind the last known chat, and back off before the next
// long-poll attempt.
func (r *recoveryController) onUnknown() {
	r.mu.Lock()
	first := r.state == recoveryIdle
	r.state = recoveryRecovering
	backoff := r.backoff
	r.mu.Unlock()

	if first {
		log.Printf("wrapper: session unknown to daemon, entering recovery")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := r.client.Remote.Register(ctx, r.register); err == nil {
		if r.lastChatID != "" {
			_ = r.client.Remote.BindChat(ctx, r.register.ExistingID, r.lastChatID)
		}
		if r.onReregister != nil {
			r.onReregister(r.register.ExistingID)
		}
	}

	time.Sleep(backoff)
	r.mu.Lock()
	r.backoff *= 2
	if r.backoff > recoveryBackoffMax {
		r.backoff = recoveryBackoffMax
	}
	r.mu.Unlock()
}

// noteBindChat records the most recently bound chat so recovery can
// rebind it after a successful re-registration.
func (r *recoveryController) noteBindChat(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastChatID = chatID
}
