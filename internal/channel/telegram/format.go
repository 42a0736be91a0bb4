// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"regexp"
	"strings"
)

// htmlFormatter renders Telegram's HTML parse-mode markup, grounded on the
// teacher's Channel formatter contract and Ricochet's format.ToTelegramHTML
// helper.
type htmlFormatter struct{}

func (htmlFormatter) Bold(s string) string   { return "<b>" + htmlFormatter{}.Escape(s) + "</b>" }
func (htmlFormatter) Italic(s string) string { return "<i>" + htmlFormatter{}.Escape(s) + "</i>" }
func (htmlFormatter) Code(s string) string   { return "<code>" + htmlFormatter{}.Escape(s) + "</code>" }
func (htmlFormatter) Pre(s string) string    { return "<pre>" + htmlFormatter{}.Escape(s) + "</pre>" }

func (htmlFormatter) Link(text, url string) string {
	return `<a href="` + htmlFormatter{}.Escape(url) + `">` + htmlFormatter{}.Escape(text) + `</a>`
}

func (htmlFormatter) Escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

var (
	reMarkdownBold   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	reMarkdownItalic = regexp.MustCompile(`_([^_]+)_`)
	reMarkdownCode   = regexp.MustCompile("`([^`]+)`")
)

// FromMarkdown does a best-effort conversion of the tool-produced Markdown
// subset (bold/italic/inline-code) into Telegram HTML, escaping everything
// else first so user text can never inject markup.
func (f htmlFormatter) FromMarkdown(s string) string {
	escaped := f.Escape(s)
	escaped = reMarkdownCode.ReplaceAllString(escaped, "<code>$1</code>")
	escaped = reMarkdownBold.ReplaceAllString(escaped, "<b>$1</b>")
	escaped = reMarkdownItalic.ReplaceAllString(escaped, "<i>$1</i>")
	return escaped
}

// stripANSI removes ANSI escape/control sequences from PTY output before
// it is wrapped in a <pre> block.
func stripANSI(s string) string {
	return reANSI.ReplaceAllString(s, "")
}

var reANSI = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// chunkText splits s into chunks of at most max bytes, preferring to break
// on a newline boundary so a single log line is never split mid-way.
func chunkText(s string, max int) []string {
	if len(s) <= max {
		return []string{s}
	}
	var chunks []string
	for len(s) > max {
		cut := strings.LastIndexByte(s[:max], '\n')
		if cut <= 0 {
			cut = max
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}
