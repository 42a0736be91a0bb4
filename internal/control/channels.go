// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/config"
)

func (s *Server) registerChannelRoutes(r *mux.Router) {
	r.HandleFunc("/channels", s.handleListChannels).Methods(http.MethodGet)
	r.HandleFunc("/config/channels", s.handleGetConfigChannels).Methods(http.MethodGet)
	r.HandleFunc("/config/channels/{name}", s.handleUpsertConfigChannel).Methods(http.MethodPost)
	r.HandleFunc("/config/channels/{name}", s.handleDeleteConfigChannel).Methods(http.MethodDelete)
	r.HandleFunc("/config/channels/{name}/paired-users", s.handleAddPairedUser).Methods(http.MethodPost)
	r.HandleFunc("/config/channels/{name}/paired-users/{userId}", s.handleRemovePairedUser).Methods(http.MethodDelete)
	r.HandleFunc("/config/channels/{name}/linked-groups", s.handleAddLinkedGroup).Methods(http.MethodPost)
	r.HandleFunc("/config/channels/{name}/linked-groups/{chatId}", s.handleRemoveLinkedGroup).Methods(http.MethodDelete)
}

// handleListChannels reports the chats visible to each configured channel
// along with a coarse busy flag (attached to a running session).
func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	s.mu.Unlock()

	type entry struct {
		Name  string `json:"name"`
		Type  string `json:"type,omitempty"`
		Title string `json:"title,omitempty"`
		Busy  bool   `json:"busy"`
	}

	var out []entry
	for _, name := range names {
		cfgChan := s.cfg.Channels[name]
		chanType := ""
		if cfgChan != nil {
			chanType = cfgChan.Type
		}
		out = append(out, entry{Name: name, Type: chanType})
		if cfgChan != nil {
			for _, g := range cfgChan.LinkedGroups {
				_, busy := s.mgr.AttachedSession(addressing.ChatID(g.ChatID))
				out = append(out, entry{Name: name, Type: chanType, Title: g.Title, Busy: busy})
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetConfigChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Channels)
}

func (s *Server) persistConfig() error {
	return config.NewLoader().Save(s.cfgPath, s.cfg)
}

func (s *Server) handleUpsertConfigChannel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var body config.Channel
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return
	}
	if body.Type == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "type is required")
		return
	}

	if s.cfg.Channels == nil {
		s.cfg.Channels = make(map[string]*config.Channel)
	}
	ch := body
	s.cfg.Channels[name] = &ch

	if err := s.persistConfig(); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not save config")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleDeleteConfigChannel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, ok := s.cfg.Channels[name]; !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no such channel")
		return
	}
	delete(s.cfg.Channels, name)
	if err := s.persistConfig(); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not save config")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": name})
}

func (s *Server) handleAddPairedUser(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ch, ok := s.cfg.Channels[name]
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no such channel")
		return
	}
	var body config.PairedUser
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "userId is required")
		return
	}
	body.PairedAt = time.Now()
	ch.PairedUsers = append(ch.PairedUsers, body)

	if err := s.persistConfig(); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not save config")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleRemovePairedUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ch, ok := s.cfg.Channels[vars["name"]]
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no such channel")
		return
	}
	kept := ch.PairedUsers[:0]
	for _, u := range ch.PairedUsers {
		if u.UserID != vars["userId"] {
			kept = append(kept, u)
		}
	}
	ch.PairedUsers = kept
	if err := s.persistConfig(); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not save config")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": vars["userId"]})
}

func (s *Server) handleAddLinkedGroup(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ch, ok := s.cfg.Channels[name]
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no such channel")
		return
	}
	var body config.LinkedGroup
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ChatID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "chatId is required")
		return
	}
	body.LinkedAt = time.Now()
	ch.LinkedGroups = append(ch.LinkedGroups, body)

	if err := s.persistConfig(); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not save config")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleRemoveLinkedGroup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ch, ok := s.cfg.Channels[vars["name"]]
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no such channel")
		return
	}
	kept := ch.LinkedGroups[:0]
	for _, g := range ch.LinkedGroups {
		if g.ChatID != vars["chatId"] {
			kept = append(kept, g)
		}
	}
	ch.LinkedGroups = kept
	if err := s.persistConfig(); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not save config")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": vars["chatId"]})
}
