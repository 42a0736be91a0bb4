// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package control implements the daemon's authenticated local HTTP surface
// (§4.2): a flat, versionless set of endpoints consumed by the CLI and by
// the wrapper process, adapted from the teacher's gorilla/mux router and
// response-envelope conventions onto touchgrass's session/channel domain.
package control

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/channel"
	"github.com/tomtev/touchgrass/internal/config"
	"github.com/tomtev/touchgrass/internal/session"
	"github.com/tomtev/touchgrass/internal/transcript"
)

// EventSink receives normalized transcript events ingested from wrapper
// processes and is responsible for fan-out to chat (the output pipeline).
// The control server depends only on this interface to avoid an import
// cycle with internal/outputpipeline, which itself depends on control's
// sibling packages (session, channel).
type EventSink interface {
	Assistant(sessionID, text string)
	Thinking(sessionID, text string)
	ToolCall(sessionID string, tc transcript.ToolCall)
	ToolResult(sessionID string, tr transcript.ToolResult)
	Question(sessionID string, q transcript.Question) (pollID string, err error)
	ApprovalNeeded(sessionID string, prompt string, options []string) (pollID string, err error)
	BackgroundJob(sessionID string, ev transcript.BackgroundJobEvent)
	Typing(sessionID string, active bool)
}

// Server is the daemon's control-server state.
type Server struct {
	mgr       *session.Manager
	cfg       *config.Config
	cfgPath   string
	authToken string
	startedAt time.Time

	mu       sync.Mutex
	channels map[string]channel.Channel
	pairing  map[string]pairingEntry
	sink     EventSink

	httpServer *http.Server
}

type pairingEntry struct {
	code      string
	expiresAt time.Time
}

// New constructs a Server bound to mgr/cfg with the given shared secret.
func New(mgr *session.Manager, cfg *config.Config, cfgPath, authToken string) *Server {
	return &Server{
		mgr:       mgr,
		cfg:       cfg,
		cfgPath:   cfgPath,
		authToken: authToken,
		startedAt: time.Now(),
		channels:  make(map[string]channel.Channel),
		pairing:   make(map[string]pairingEntry),
	}
}

// SetEventSink wires the output pipeline in once it's constructed.
func (s *Server) SetEventSink(sink EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// RegisterChannel makes an adapter visible to /channels and lets other
// handlers address it by name.
func (s *Server) RegisterChannel(name string, ch channel.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[name] = ch
}

func (s *Server) channel(name string) (channel.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[name]
	return ch, ok
}

// ChannelForChat resolves the Channel adapter responsible for chatID,
// exported so the output pipeline can address sends without this package
// depending on it.
func (s *Server) ChannelForChat(chatID addressing.ChatID) (channel.Channel, bool) {
	addr, err := addressing.ParseChatID(chatID)
	if err != nil {
		return nil, false
	}
	name := addr.ChannelName
	if name == "" {
		name = addr.Type
	}
	return s.channel(name)
}

// Manager exposes the session manager so sibling packages constructed
// around the same Server (the output pipeline, the command router) share
// one instance instead of threading it through separately.
func (s *Server) Manager() *session.Manager { return s.mgr }

// Config exposes the live config so chat-preference lookups (output mode,
// thinking) stay in sync with CRUD done through the control endpoints.
func (s *Server) Config() *config.Config { return s.cfg }

// Router builds the mux.Router with middleware and every endpoint group
// wired in (§4.2).
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware, loggingMiddleware, bodyLimitMiddleware, s.authMiddleware)

	s.registerLivenessRoutes(r)
	s.registerChannelRoutes(r)
	s.registerRemoteRoutes(r)
	s.registerEventRoutes(r)
	s.registerActionRoutes(r)
	s.registerSkillsRoutes(r)
	return r
}

// Serve listens on the given Unix domain socket path when socketPath is
// non-empty, otherwise on addr (loopback TCP), and blocks until the context
// is cancelled.
func (s *Server) Serve(ctx context.Context, addr, socketPath string) error {
	handler := s.Router()
	s.httpServer = &http.Server{Handler: handler}

	var ln net.Listener
	var err error
	if socketPath != "" {
		ln, err = net.Listen("unix", socketPath)
	} else {
		ln, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("control: listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// GenerateToken is exposed for daemon startup to create a fresh shared
// secret when daemon.auth doesn't already exist.
func GenerateToken() (string, error) { return generateToken() }
