// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package msglog is the in-memory message log behind the chat view.
//
// It owns the ordered bubbles, the welcome placeholder shown on an empty
// chat, the single typing indicator and per-bubble action marks. Views
// re-render when Version changes.
package msglog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/syntaxchat/internal/model"
)

// Typing is the transient "thinking" placeholder.
type Typing struct {
	ID    string
	Since time.Time
}

// Marks records actions taken on an assistant bubble.
type Marks struct {
	Remembered bool
	Feedback   []string
}

// Log is safe for concurrent use.
type Log struct {
	mu sync.RWMutex

	entries []*model.Message
	welcome bool
	typing  *Typing
	marks   map[string]*Marks
	version uint64
	now     func() time.Time
}

// New returns an empty log showing the welcome placeholder.
func New() *Log {
	return &Log{
		welcome: true,
		marks:   make(map[string]*Marks),
		now:     time.Now,
	}
}

// =============================================================================
// APPEND
// =============================================================================

// Append adds a bubble. The first append after a reset replaces the welcome
// placeholder. An assistant bubble always removes the typing indicator
// first.
func (l *Log) Append(msg *model.Message) {
	if msg == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if msg.ID == "" {
		msg.ID = model.NewLocalID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = l.now()
	}
	if msg.Role == model.RoleAssistant {
		l.typing = nil
	}
	l.welcome = false
	l.entries = append(l.entries, msg)
	l.version++
}

// AppendUser adds a user bubble with its attachment chips.
func (l *Log) AppendUser(text string, attachments []model.Attachment) *model.Message {
	msg := model.NewUserMessage(text, attachments)
	l.Append(msg)
	return msg
}

// AppendAssistant adds a normal assistant bubble. id is the server message
// id when known.
func (l *Log) AppendAssistant(id, text string, meta model.Meta) *model.Message {
	msg := model.NewAssistantMessage(id, text, meta)
	l.Append(msg)
	return msg
}

// AppendError adds an assistant bubble of the error variant.
func (l *Log) AppendError(text string) *model.Message {
	msg := model.NewErrorMessage(text)
	l.Append(msg)
	return msg
}

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// ShowTyping shows the typing indicator, replacing any existing one.
func (l *Log) ShowTyping() Typing {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := Typing{ID: "typing_" + uuid.NewString(), Since: l.now()}
	l.typing = &t
	l.version++
	return t
}

// HideTyping removes the typing indicator if present.
func (l *Log) HideTyping() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.typing == nil {
		return
	}
	l.typing = nil
	l.version++
}

// Typing returns the indicator, if shown.
func (l *Log) Typing() (Typing, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.typing == nil {
		return Typing{}, false
	}
	return *l.typing, true
}

// =============================================================================
// RESET AND QUERIES
// =============================================================================

// Reset empties the log and shows the welcome placeholder again.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.typing = nil
	l.welcome = true
	l.marks = make(map[string]*Marks)
	l.version++
}

// Welcome reports whether the welcome placeholder is showing.
func (l *Log) Welcome() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.welcome
}

// Entries returns the bubbles in append order.
func (l *Log) Entries() []*model.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*model.Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of bubbles.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Version increases on every visible change.
func (l *Log) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// LatestAssistant returns the newest assistant bubble that has an action
// row, i.e. not an error bubble.
func (l *Log) LatestAssistant() (*model.Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if m := l.entries[i]; m.HasActions() {
			return m, true
		}
	}
	return nil, false
}

// =============================================================================
// ACTION MARKS
// =============================================================================

// MarkRemembered flags a bubble as remembered.
func (l *Log) MarkRemembered(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.marksFor(id).Remembered = true
	l.version++
}

// MarkFeedback records a feedback type sent for a bubble.
func (l *Log) MarkFeedback(id, feedbackType string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.marksFor(id)
	for _, f := range m.Feedback {
		if f == feedbackType {
			return
		}
	}
	m.Feedback = append(m.Feedback, feedbackType)
	l.version++
}

// MarksFor returns a copy of the marks on a bubble.
func (l *Log) MarksFor(id string) Marks {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.marks[id]
	if !ok {
		return Marks{}
	}
	return Marks{Remembered: m.Remembered, Feedback: append([]string(nil), m.Feedback...)}
}

func (l *Log) marksFor(id string) *Marks {
	m, ok := l.marks[id]
	if !ok {
		m = &Marks{}
		l.marks[id] = m
	}
	return m
}
