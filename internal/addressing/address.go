// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package addressing parses and serializes the colon-delimited channel
// addresses used throughout touchgrass to name chats and paired users.
package addressing

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a parsed channel address: type[:channelName]:idPart[:threadPart].
// channelName is present when the segment following the type is not a bare
// numeric id -- it distinguishes multiple configured accounts of the same
// channel type.
type Address struct {
	Type        string
	ChannelName string
	IDPart      string
	ThreadPart  string
}

// ChatID is the serialized form of an Address identifying a message
// destination (a DM, group, or group topic).
type ChatID string

// UserID is the serialized form of an Address identifying a paired human.
type UserID string

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '-' {
		start = 1
	}
	if start == len(s) {
		return false
	}
	for i := start; i < len(s); i++ {
		if _, err := strconv.Atoi(string(s[i])); err != nil {
			return false
		}
	}
	return true
}

// Parse parses a colon-delimited channel address string.
func Parse(s string) (Address, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return Address{}, fmt.Errorf("addressing: malformed address %q", s)
	}

	addr := Address{Type: parts[0]}
	rest := parts[1:]

	if isNumeric(rest[0]) {
		addr.IDPart = rest[0]
		rest = rest[1:]
	} else {
		addr.ChannelName = rest[0]
		if len(rest) < 2 {
			return Address{}, fmt.Errorf("addressing: malformed address %q: missing idPart", s)
		}
		addr.IDPart = rest[1]
		rest = rest[2:]
	}

	if len(rest) > 0 {
		addr.ThreadPart = rest[0]
	}
	if addr.IDPart == "" {
		return Address{}, fmt.Errorf("addressing: malformed address %q: empty idPart", s)
	}
	return addr, nil
}

// Serialize renders an Address back to its colon-delimited string form.
func Serialize(a Address) string {
	var b strings.Builder
	b.WriteString(a.Type)
	if a.ChannelName != "" {
		b.WriteByte(':')
		b.WriteString(a.ChannelName)
	}
	b.WriteByte(':')
	b.WriteString(a.IDPart)
	if a.ThreadPart != "" {
		b.WriteByte(':')
		b.WriteString(a.ThreadPart)
	}
	return b.String()
}

func (a Address) String() string { return Serialize(a) }

// ParseChatID parses s as a ChatID-shaped address.
func ParseChatID(s ChatID) (Address, error) { return Parse(string(s)) }

// ParseUserID parses s as a UserID-shaped address.
func ParseUserID(s UserID) (Address, error) { return Parse(string(s)) }

// GetParentChatID strips any thread suffix from chatID, returning the
// address of the parent group/DM.
func GetParentChatID(chatID ChatID) ChatID {
	addr, err := Parse(string(chatID))
	if err != nil {
		return chatID
	}
	addr.ThreadPart = ""
	return ChatID(Serialize(addr))
}

// IsGroup reports whether addr looks like a group/topic address (negative
// numeric id, the Telegram convention for group chats) rather than a DM.
func IsGroup(addr Address) bool {
	return strings.HasPrefix(addr.IDPart, "-")
}
