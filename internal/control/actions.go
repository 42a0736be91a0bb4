// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
)

func (s *Server) registerActionRoutes(r *mux.Router) {
	r.HandleFunc("/session/{id}/stop", s.handleSessionStop).Methods(http.MethodPost)
	r.HandleFunc("/session/{id}/kill", s.handleSessionKill).Methods(http.MethodPost)
	r.HandleFunc("/session/{id}/restart", s.handleSessionRestart).Methods(http.MethodPost)
	r.HandleFunc("/sessions/recent", s.handleSessionsRecent).Methods(http.MethodGet)
	r.HandleFunc("/background-jobs", s.handleBackgroundJobs).Methods(http.MethodGet)
	r.HandleFunc("/hook/{id}", s.handleClaudeHook).Methods(http.MethodPost)
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.mgr.RequestRemoteStop(id) {
		writeError(w, http.StatusNotFound, codeNotFound, "no such session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requested": "stop"})
}

func (s *Server) handleSessionKill(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.mgr.RequestRemoteKill(id) {
		writeError(w, http.StatusNotFound, codeNotFound, "no such session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requested": "kill"})
}

func (s *Server) handleSessionRestart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Ref string `json:"ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Ref == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "ref is required")
		return
	}
	if !s.mgr.RequestRemoteResume(id, body.Ref) {
		writeError(w, http.StatusNotFound, codeNotFound, "no such session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requested": "resume", "ref": body.Ref})
}

// handleSessionsRecent backs the resume picker: every live session
// registered with the daemon (there is no per-caller owner filter),
// optionally narrowed by tool (argv[0]) and cwd, most recently seen first.
func (s *Server) handleSessionsRecent(w http.ResponseWriter, r *http.Request) {
	tool := r.URL.Query().Get("tool")
	cwd := r.URL.Query().Get("cwd")

	all := s.mgr.Sessions()
	filtered := all[:0]
	for _, sess := range all {
		if tool != "" && (len(sess.Command) == 0 || sess.Command[0] != tool) {
			continue
		}
		if cwd != "" && sess.Cwd != cwd {
			continue
		}
		filtered = append(filtered, sess)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].LastSeenAt.After(filtered[j].LastSeenAt)
	})
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleBackgroundJobs(w http.ResponseWriter, r *http.Request) {
	cwd := r.URL.Query().Get("cwd")
	var out []map[string]any
	for _, sess := range s.mgr.Sessions() {
		if cwd != "" && sess.Cwd != cwd {
			continue
		}
		for _, job := range s.mgr.JobsForSession(sess.ID) {
			out = append(out, map[string]any{
				"sessionId": sess.ID,
				"taskId":    job.TaskID,
				"status":    job.Status,
				"command":   job.Command,
				"urls":      job.URLs,
				"updatedAt": job.UpdatedAt,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// claudeHookBody is the wire shape Claude Code's hook script posts (§6).
type claudeHookBody struct {
	HookEventName         string         `json:"hook_event_name"`
	ToolName              string         `json:"tool_name"`
	ToolInput             map[string]any `json:"tool_input"`
	PermissionSuggestions []string       `json:"permission_suggestions"`
}

// handleClaudeHook ingests PermissionRequest/UserPromptSubmit/Stop hook
// calls, translating a PermissionRequest into the same approval-needed
// flow the non-Claude tools reach via PTY-buffer scanning.
func (s *Server) handleClaudeHook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sink := s.sinkOrNotFound(w, id)
	if sink == nil {
		return
	}
	var body claudeHookBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return
	}

	switch body.HookEventName {
	case "PermissionRequest":
		prompt := "Allow " + body.ToolName + "?"
		if _, err := sink.ApprovalNeeded(id, prompt, body.PermissionSuggestions); err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "could not post approval poll")
			return
		}
	case "Stop":
		s.mgr.DrainRemoteControl(id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}
