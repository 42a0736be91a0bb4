// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func TestThreadChatIDAppendsThreadSuffixForForumTopics(t *testing.T) {
	msg := &models.Message{
		Chat:            models.Chat{ID: 100, IsForum: true},
		MessageThreadID: 42,
	}
	assert.Equal(t, "telegram:100:42", string(threadChatID(msg)))
}

func TestThreadChatIDOmitsSuffixOutsideForums(t *testing.T) {
	msg := &models.Message{
		Chat:            models.Chat{ID: 100, IsForum: false},
		MessageThreadID: 42,
	}
	assert.Equal(t, "telegram:100", string(threadChatID(msg)))
}

func TestForumTopicTitleFromCreatedEvent(t *testing.T) {
	msg := &models.Message{
		ForumTopicCreated: &models.ForumTopicCreated{Name: "bug-bash"},
	}
	assert.Equal(t, "bug-bash", forumTopicTitle(msg))
}

func TestForumTopicTitleFromEditedEvent(t *testing.T) {
	msg := &models.Message{
		ForumTopicEdited: &models.ForumTopicEdited{Name: "renamed-topic"},
	}
	assert.Equal(t, "renamed-topic", forumTopicTitle(msg))
}

func TestForumTopicTitleEmptyForOrdinaryMessage(t *testing.T) {
	msg := &models.Message{Text: "hello"}
	assert.Equal(t, "", forumTopicTitle(msg))
}

func TestBotMentionStrippedFromText(t *testing.T) {
	text := "@touchgrass_bot please resume"
	assert.Equal(t, " please resume", reBotMention.ReplaceAllString(text, ""))
}
