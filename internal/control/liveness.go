// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
)

func (s *Server) registerLivenessRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/shutdown", s.handleShutdown).Methods(http.MethodPost)
	r.HandleFunc("/generate-code", s.handleGenerateCode).Methods(http.MethodPost)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pid":       os.Getpid(),
		"startedAt": s.startedAt,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessions := s.mgr.Sessions()
	summaries := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		bound, hasBound := s.mgr.GetBoundChat(sess.ID)
		summaries = append(summaries, map[string]any{
			"id":         sess.ID,
			"command":    sess.Command,
			"cwd":        sess.Cwd,
			"ownerUserId": sess.OwnerUserID,
			"boundChat":  bound,
			"attached":   hasBound,
			"lastSeenAt": sess.LastSeenAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pid":      os.Getpid(),
		"sessions": summaries,
	})
}

// handleShutdown acknowledges the request, closes the server's listener,
// then sends SIGTERM to its own process, which the daemon's App.Run handles
// as a graceful stop before cmd/touchgrassd exits.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"shuttingDown": true})
	go func() {
		time.Sleep(50 * time.Millisecond)
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = s.httpServer.Shutdown(ctx)
		}
		if p, err := os.FindProcess(os.Getpid()); err == nil {
			_ = p.Signal(syscall.SIGTERM)
		}
	}()
}

const pairingCodeTTL = 10 * time.Minute

// handleGenerateCode mints a short-lived, case-insensitive pairing code
// (§4.2) that /pair later redeems.
func (s *Server) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	code, err := generateToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not generate code")
		return
	}
	code = strings.ToUpper(code[:8])

	s.mu.Lock()
	s.pairing[code] = pairingEntry{code: code, expiresAt: time.Now().Add(pairingCodeTTL)}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"code": code, "expiresInSeconds": int(pairingCodeTTL.Seconds())})
}

// redeemPairingCode consumes a pairing code if it exists and hasn't
// expired. Comparison is case-insensitive per §4.2.
func (s *Server) redeemPairingCode(code string) bool {
	code = strings.ToUpper(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pairing[code]
	if !ok {
		return false
	}
	delete(s.pairing, code)
	return time.Now().Before(entry.expiresAt)
}

// RedeemPairingCode is the exported form the command router calls from
// /pair, which lives outside this package to avoid control depending on
// the channel-message-dispatch surface.
func (s *Server) RedeemPairingCode(code string) bool { return s.redeemPairingCode(code) }

// PersistConfig writes the live in-memory config back to disk, used by the
// router after /link, /unlink, /pair, and preference changes.
func (s *Server) PersistConfig() error { return s.persistConfig() }
