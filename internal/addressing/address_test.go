// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package addressing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBareID(t *testing.T) {
	addr, err := Parse("telegram:42")
	require.NoError(t, err)
	assert.Equal(t, "telegram", addr.Type)
	assert.Equal(t, "", addr.ChannelName)
	assert.Equal(t, "42", addr.IDPart)
	assert.Equal(t, "", addr.ThreadPart)
}

func TestParseNamedChannel(t *testing.T) {
	addr, err := Parse("telegram:work:42")
	require.NoError(t, err)
	assert.Equal(t, "telegram", addr.Type)
	assert.Equal(t, "work", addr.ChannelName)
	assert.Equal(t, "42", addr.IDPart)
}

func TestParseWithThread(t *testing.T) {
	addr, err := Parse("telegram:-100555:99")
	require.NoError(t, err)
	assert.Equal(t, "-100555", addr.IDPart)
	assert.Equal(t, "99", addr.ThreadPart)
}

func TestParseNamedChannelWithThread(t *testing.T) {
	addr, err := Parse("telegram:work:-100555:99")
	require.NoError(t, err)
	assert.Equal(t, "work", addr.ChannelName)
	assert.Equal(t, "-100555", addr.IDPart)
	assert.Equal(t, "99", addr.ThreadPart)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse("telegram")
	assert.Error(t, err)
}

func TestRoundTripAllForms(t *testing.T) {
	cases := []string{
		"telegram:42",
		"telegram:work:42",
		"telegram:-100555:99",
		"telegram:work:-100555:99",
		"slack:9999",
	}
	for _, s := range cases {
		addr, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, Serialize(addr), s)
	}
}

func TestGetParentChatID(t *testing.T) {
	assert.Equal(t, ChatID("telegram:-100555"), GetParentChatID("telegram:-100555:99"))
	assert.Equal(t, ChatID("telegram:42"), GetParentChatID("telegram:42"))
}

func TestIsGroup(t *testing.T) {
	a, _ := Parse("telegram:-100555")
	b, _ := Parse("telegram:42")
	assert.True(t, IsGroup(a))
	assert.False(t, IsGroup(b))
}
