// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tomtev/touchgrass/internal/addressing"
)

func (s *Server) registerRemoteRoutes(r *mux.Router) {
	r.HandleFunc("/remote/register", s.handleRemoteRegister).Methods(http.MethodPost)
	r.HandleFunc("/remote/bind-chat", s.handleRemoteBindChat).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/exit", s.handleRemoteExit).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/input", s.handleRemoteInput).Methods(http.MethodGet)
	r.HandleFunc("/remote/{id}/send-input", s.handleRemoteSendInput).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/send-message", s.handleRemoteSendMessage).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/send-file", s.handleRemoteSendFile).Methods(http.MethodPost)
}

type registerRequest struct {
	Command     []string `json:"command"`
	Cwd         string   `json:"cwd"`
	ChatID      string   `json:"chatId"`
	OwnerUserID string   `json:"ownerUserId"`
	ExistingID  string   `json:"existingId"`
}

func (s *Server) handleRemoteRegister(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return
	}
	if len(body.Command) == 0 || body.OwnerUserID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "command and ownerUserId are required")
		return
	}

	sess := s.mgr.RegisterRemote(body.Command, addressing.ChatID(body.ChatID), addressing.UserID(body.OwnerUserID), body.Cwd, body.ExistingID)
	if body.ChatID != "" {
		s.mgr.Attach(addressing.ChatID(body.ChatID), sess.ID)
	}
	writeJSON(w, http.StatusOK, sess)
}

type bindChatRequest struct {
	ID     string `json:"id"`
	ChatID string `json:"chatId"`
}

func (s *Server) handleRemoteBindChat(w http.ResponseWriter, r *http.Request) {
	var body bindChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" || body.ChatID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "id and chatId are required")
		return
	}
	if !s.mgr.Attach(addressing.ChatID(body.ChatID), body.ID) {
		writeError(w, http.StatusNotFound, codeNotFound, "no such session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attached": true})
}

func (s *Server) handleRemoteExit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.mgr.Get(id); !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no such session")
		return
	}
	var body struct {
		ExitCode int `json:"exitCode"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.mgr.EndRemote(id)
	writeJSON(w, http.StatusOK, map[string]any{"ended": id})
}

// longPollInterval is how often handleRemoteInput re-checks the manager
// while waiting for queued input or a control action to appear.
const longPollInterval = 100 * time.Millisecond
const longPollTimeout = 25 * time.Second

// handleRemoteInput drains queued input lines and the pending control
// action for id, holding the connection open briefly so the wrapper's
// 200ms poll loop doesn't busy-spin the daemon (§4.2, §4.3 step 9).
func (s *Server) handleRemoteInput(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.mgr.Get(id); !ok {
		writeJSON(w, http.StatusOK, map[string]any{"unknown": true})
		return
	}

	deadline := time.Now().Add(longPollTimeout)
	ticker := time.NewTicker(longPollInterval)
	defer ticker.Stop()

	for {
		lines, ok := s.mgr.DrainRemoteInput(id)
		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{"unknown": true})
			return
		}
		action, _ := s.mgr.DrainRemoteControl(id)
		if len(lines) > 0 || action != nil || time.Now().After(deadline) {
			writeJSON(w, http.StatusOK, map[string]any{
				"input":         lines,
				"controlAction": action,
			})
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) handleRemoteSendInput(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "text is required")
		return
	}
	if !s.mgr.QueueInput(id, body.Text) {
		writeError(w, http.StatusNotFound, codeNotFound, "no such session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queued": true})
}

func (s *Server) handleRemoteSendMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := s.mgr.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no such session")
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "text is required")
		return
	}
	ch, ok := s.ChannelForChat(sess.ChatID)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no channel bound to this session")
		return
	}
	if _, err := ch.Send(r.Context(), sess.ChatID, ch.Fmt().Escape(body.Text)); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "send failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": true})
}

func (s *Server) handleRemoteSendFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := s.mgr.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no such session")
		return
	}
	var body struct {
		Path    string `json:"path"`
		Caption string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "path is required")
		return
	}
	ch, ok := s.ChannelForChat(sess.ChatID)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no channel bound to this session")
		return
	}
	if err := ch.SendDocument(r.Context(), sess.ChatID, body.Path, body.Caption); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "send document failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": true})
}
