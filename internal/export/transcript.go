// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
	"time"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/msglog"
	"github.com/jeranaias/syntaxchat/internal/util"
)

// titleRunes caps titles derived from the first user message.
const titleRunes = 60

// Transcript is what every exporter consumes.
type Transcript struct {
	Title      string           `json:"title"`
	ThreadID   string           `json:"thread_id,omitempty"`
	Persona    string           `json:"persona,omitempty"`
	ExportedAt time.Time        `json:"exported_at"`
	Messages   []*model.Message `json:"messages"`
}

// FromLog snapshots the message log. The typing indicator and welcome
// placeholder are not part of the transcript.
func FromLog(l *msglog.Log, threadID, persona string) *Transcript {
	msgs := l.Entries()
	return &Transcript{
		Title:      deriveTitle(msgs),
		ThreadID:   threadID,
		Persona:    persona,
		ExportedAt: time.Now(),
		Messages:   msgs,
	}
}

// FromHistory builds a transcript from a stored conversation.
func FromHistory(threadID, title string, history []backend.HistoryMessage) *Transcript {
	msgs := make([]*model.Message, 0, len(history))
	for _, h := range history {
		msgs = append(msgs, &model.Message{
			ID:        h.ID,
			Role:      h.Role,
			Content:   h.Content,
			Timestamp: h.CreatedAt,
		})
	}
	if title == "" {
		title = deriveTitle(msgs)
	}
	return &Transcript{
		Title:      title,
		ThreadID:   threadID,
		ExportedAt: time.Now(),
		Messages:   msgs,
	}
}

// deriveTitle uses the first line of the first user message.
func deriveTitle(msgs []*model.Message) string {
	for _, m := range msgs {
		if m.Role != model.RoleUser {
			continue
		}
		line := strings.TrimSpace(strings.SplitN(m.Content, "\n", 2)[0])
		if line != "" {
			return util.TruncateRunes(line, titleRunes)
		}
	}
	return "Conversation"
}

// CreatedAt is the timestamp of the first bubble, or the export time.
func (t *Transcript) CreatedAt() time.Time {
	for _, m := range t.Messages {
		if !m.Timestamp.IsZero() {
			return m.Timestamp
		}
	}
	return t.ExportedAt
}
