// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"encoding/json"
	"os"
	"time"

	"github.com/tomtev/touchgrass/internal/paths"
)

// manifest is the per-session record written to
// TOUCHGRASS_HOME/sessions/<id>.json (§4.3 step 4, §6), letting `tg peek`
// and `tg doctor` inspect a live wrapper without talking to the daemon.
type manifest struct {
	ID         string    `json:"id"`
	Command    []string  `json:"command"`
	Cwd        string    `json:"cwd"`
	Pid        int       `json:"pid"`
	JSONLFile  string    `json:"jsonlFile"`
	StartedAt  time.Time `json:"startedAt"`
}

// writeManifest persists m to its well-known path with 0600 permissions,
// matching every other secret/identity file under TOUCHGRASS_HOME.
func writeManifest(home *paths.Bundle, m manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(home.SessionManifestPath(m.ID), data, 0600)
}

// updateManifestTranscript rewrites the jsonlFile field once the tailer
// discovers the tool's transcript path, which isn't known at spawn time.
func updateManifestTranscript(home *paths.Bundle, id, jsonlFile string) error {
	path := home.SessionManifestPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	m.JSONLFile = jsonlFile
	return writeManifest(home, m)
}

// removeManifest deletes the manifest on wrapper exit (§4.3 step 10).
func removeManifest(home *paths.Bundle, id string) {
	_ = os.Remove(home.SessionManifestPath(id))
}
