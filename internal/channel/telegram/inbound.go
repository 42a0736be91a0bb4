// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/channel"
)

// UploadsDir is where inbound file attachments are cached; set by the
// daemon at startup from the TOUCHGRASS_HOME paths bundle.
var UploadsDir = os.TempDir()

func (a *Adapter) handleUpdate(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		a.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		a.handleMessage(ctx, update.Message)
	}
}

func (a *Adapter) handleCallbackQuery(ctx context.Context, cq *models.CallbackQuery) {
	pollID, optionIdx, ok := parseCallbackData(cq.Data)
	_, _ = a.bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})
	if !ok || a.onPollAnswer == nil {
		return
	}
	chatID := cq.Message.Message.Chat.ID
	a.onPollAnswer(channel.PollAnswer{
		ChatID:    addressing.ChatID(fmt.Sprintf("telegram:%d", chatID)),
		UserID:    addressing.UserID(fmt.Sprintf("telegram:%d", cq.From.ID)),
		PollID:    pollID,
		OptionIDs: []int{optionIdx},
	})
}

var reBotMention = regexp.MustCompile(`@\w+bot\b`)

func (a *Adapter) handleMessage(ctx context.Context, msg *models.Message) {
	if a.onMessage == nil {
		return
	}
	if msg.Voice != nil || msg.VideoNote != nil {
		log.Printf("telegram: ignoring unsupported voice/video-note message in chat %d", msg.Chat.ID)
		return
	}

	if title := forumTopicTitle(msg); title != "" {
		threadChat := threadChatID(msg)
		a.mu.Lock()
		a.topicTitles[threadChat] = title
		a.mu.Unlock()
		return
	}

	chatID := threadChatID(msg)
	isGroup := msg.Chat.Type != models.ChatTypePrivate

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	text = reBotMention.ReplaceAllString(text, "")

	var fileURLs []string
	if url, err := a.downloadAttachment(ctx, msg); err == nil && url != "" {
		fileURLs = append(fileURLs, url)
	}
	if msg.ReplyToMessage != nil {
		if url, err := a.downloadAttachment(ctx, msg.ReplyToMessage); err == nil && url != "" {
			fileURLs = append(fileURLs, url)
		}
	}

	a.mu.Lock()
	topicTitle := a.topicTitles[chatID]
	a.mu.Unlock()

	var replyRef string
	if msg.ReplyToMessage != nil {
		replyRef = strconv.Itoa(msg.ReplyToMessage.ID)
	}

	a.onMessage(channel.InboundMessage{
		UserID:     addressing.UserID(fmt.Sprintf("telegram:%d", msg.From.ID)),
		ChatID:     chatID,
		Username:   msg.From.Username,
		Text:       strings.TrimSpace(text),
		FileURLs:   fileURLs,
		IsGroup:    isGroup,
		ChatTitle:  msg.Chat.Title,
		TopicTitle: topicTitle,
		ReplyToRef: replyRef,
	})
}

// threadChatID builds the ChatID for msg, appending the forum-topic thread
// suffix when present.
func threadChatID(msg *models.Message) addressing.ChatID {
	base := fmt.Sprintf("telegram:%d", msg.Chat.ID)
	if msg.MessageThreadID != 0 && msg.Chat.IsForum {
		return addressing.ChatID(fmt.Sprintf("%s:%d", base, msg.MessageThreadID))
	}
	return addressing.ChatID(base)
}

// forumTopicTitle extracts a topic name from forum create/edit service
// messages so it can later be surfaced as InboundMessage.TopicTitle.
func forumTopicTitle(msg *models.Message) string {
	if msg.ForumTopicCreated != nil {
		return msg.ForumTopicCreated.Name
	}
	if msg.ForumTopicEdited != nil && msg.ForumTopicEdited.Name != "" {
		return msg.ForumTopicEdited.Name
	}
	return ""
}

// downloadAttachment fetches the largest photo or the document attached to
// msg into UploadsDir with 0600 permissions and returns its local path.
func (a *Adapter) downloadAttachment(ctx context.Context, msg *models.Message) (string, error) {
	var fileID, fileName string
	switch {
	case msg.Document != nil:
		fileID, fileName = msg.Document.FileID, msg.Document.FileName
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		fileID, fileName = largest.FileID, largest.FileID+".jpg"
	default:
		return "", nil
	}

	file, err := a.bot.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", err
	}
	url := a.bot.FileDownloadLink(file)

	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	destPath := filepath.Join(UploadsDir, fileID+"-"+filepath.Base(fileName))
	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", err
	}
	return destPath, nil
}
