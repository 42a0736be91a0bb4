// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
)

func (s *Server) registerSkillsRoutes(r *mux.Router) {
	r.HandleFunc("/skills", s.handleListSkills).Methods(http.MethodGet)
	r.HandleFunc("/agent-soul", s.handleGetAgentSoul).Methods(http.MethodGet)
	r.HandleFunc("/agent-soul", s.handleSetAgentSoul).Methods(http.MethodPost)
}

// handleListSkills reports the names of skills discoverable under
// <cwd>/.claude/skills/<name>/SKILL.md, the convention Claude Code itself
// uses, so the CLI/picker can surface them without the tool running.
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	cwd := r.URL.Query().Get("cwd")
	if cwd == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "cwd is required")
		return
	}
	root := filepath.Join(cwd, ".claude", "skills")
	entries, err := os.ReadDir(root)
	if err != nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), "SKILL.md")); err == nil {
			names = append(names, e.Name())
		}
	}
	writeJSON(w, http.StatusOK, names)
}

func agentSoulPath(cwd string) string {
	return filepath.Join(cwd, ".touchgrass", "agent-soul.md")
}

// handleGetAgentSoul reads the repo-local persona/system-prompt override,
// returning an empty string when none has been set.
func (s *Server) handleGetAgentSoul(w http.ResponseWriter, r *http.Request) {
	cwd := r.URL.Query().Get("cwd")
	if cwd == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "cwd is required")
		return
	}
	data, err := os.ReadFile(agentSoulPath(cwd))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"content": ""})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": string(data)})
}

func (s *Server) handleSetAgentSoul(w http.ResponseWriter, r *http.Request) {
	cwd := r.URL.Query().Get("cwd")
	if cwd == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "cwd is required")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "could not read body")
		return
	}
	path := agentSoulPath(cwd)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not create directory")
		return
	}
	if err := os.WriteFile(path, body, 0600); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not write file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bytesWritten": len(body)})
}
