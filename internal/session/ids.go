// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// newSessionID mints an id of the form "r-<16 hex chars>" (§3).
func newSessionID() string {
	u := uuid.New()
	return "r-" + hex.EncodeToString(u[:8])
}
