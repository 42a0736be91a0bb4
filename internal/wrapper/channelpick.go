// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtev/touchgrass/pkg/client"
)

// resolveChannelSelector implements §4.3 step 3: resolve --channel in
// order -- "none" (or an empty selector) for no binding at all, the "dm"
// keyword for the owner's own DM, then against the daemon's advertised
// channels: exact address match, then case-insensitive title substring
// (requiring a single match).
//
// A resolved non-empty string is a chat/channel address suitable for
// /remote/bind-chat; "" with ok=true means "no binding" (selector was
// "none" or empty).
func resolveChannelSelector(ctx context.Context, c *client.Client, selector, ownerUserID string) (addr string, ok bool, err error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return "", true, nil
	}
	if strings.EqualFold(selector, "none") {
		return "", true, nil
	}
	if strings.EqualFold(selector, "dm") {
		return ownerDMAddress(ownerUserID), true, nil
	}

	entries, listErr := c.Channels.List(ctx)
	if listErr != nil {
		return "", false, listErr
	}

	for _, e := range entries {
		if e.Name == selector {
			return e.Name, true, nil
		}
	}

	var matches []client.ChannelEntry
	lower := strings.ToLower(selector)
	for _, e := range entries {
		if e.Title != "" && strings.Contains(strings.ToLower(e.Title), lower) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0].Name, true, nil
	case 0:
		return "", false, fmt.Errorf("wrapper: no channel matches %q", selector)
	default:
		return "", false, fmt.Errorf("wrapper: %q matches %d channels, be more specific", selector, len(matches))
	}
}

// ownerDMAddress derives the owner's DM chat address from their user id;
// on every adapter the DM's ChatId shares the UserId's id segment (§3).
func ownerDMAddress(ownerUserID string) string {
	return ownerUserID
}
