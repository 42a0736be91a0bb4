// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tomtev/touchgrass/internal/transcript"
)

func (s *Server) registerEventRoutes(r *mux.Router) {
	r.HandleFunc("/remote/{id}/assistant", s.handleEventAssistant).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/thinking", s.handleEventThinking).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/tool-call", s.handleEventToolCall).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/tool-result", s.handleEventToolResult).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/question", s.handleEventQuestion).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/approval-needed", s.handleEventApprovalNeeded).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/background-job", s.handleEventBackgroundJob).Methods(http.MethodPost)
	r.HandleFunc("/remote/{id}/typing", s.handleEventTyping).Methods(http.MethodPost)
}

func (s *Server) sinkOrNotFound(w http.ResponseWriter, id string) EventSink {
	if _, ok := s.mgr.Get(id); !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no such session")
		return nil
	}
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink == nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "output pipeline not ready")
		return nil
	}
	return sink
}

func (s *Server) handleEventAssistant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sink := s.sinkOrNotFound(w, id)
	if sink == nil {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return
	}
	sink.Assistant(id, body.Text)
	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}

func (s *Server) handleEventThinking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sink := s.sinkOrNotFound(w, id)
	if sink == nil {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return
	}
	sink.Thinking(id, body.Text)
	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}

func (s *Server) handleEventToolCall(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sink := s.sinkOrNotFound(w, id)
	if sink == nil {
		return
	}
	var tc transcript.ToolCall
	if err := json.NewDecoder(r.Body).Decode(&tc); err != nil || tc.Name == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "name is required")
		return
	}
	sink.ToolCall(id, tc)
	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}

func (s *Server) handleEventToolResult(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sink := s.sinkOrNotFound(w, id)
	if sink == nil {
		return
	}
	var tr transcript.ToolResult
	if err := json.NewDecoder(r.Body).Decode(&tr); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return
	}
	sink.ToolResult(id, tr)
	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}

func (s *Server) handleEventQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sink := s.sinkOrNotFound(w, id)
	if sink == nil {
		return
	}
	var q transcript.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil || q.Prompt == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "prompt is required")
		return
	}
	pollID, err := sink.Question(id, q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not post question")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pollId": pollID})
}

func (s *Server) handleEventApprovalNeeded(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sink := s.sinkOrNotFound(w, id)
	if sink == nil {
		return
	}
	var body struct {
		Prompt  string   `json:"prompt"`
		Options []string `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Prompt == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "prompt is required")
		return
	}
	pollID, err := sink.ApprovalNeeded(id, body.Prompt, body.Options)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not post approval poll")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pollId": pollID})
}

func (s *Server) handleEventBackgroundJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sink := s.sinkOrNotFound(w, id)
	if sink == nil {
		return
	}
	var ev transcript.BackgroundJobEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil || ev.TaskID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "taskId is required")
		return
	}
	sink.BackgroundJob(id, ev)
	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}

func (s *Server) handleEventTyping(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sink := s.sinkOrNotFound(w, id)
	if sink == nil {
		return
	}
	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return
	}
	sink.Typing(id, body.Active)
	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}
