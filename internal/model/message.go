// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// ParseRole maps a wire role onto a Role. Anything that is not "user" is
// shown as the assistant, which is how the backend labels its own turns.
func ParseRole(s string) Role {
	if Role(s) == RoleUser {
		return RoleUser
	}
	return RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Meta is the decorative metadata shown under a normal assistant bubble.
type Meta struct {
	Persona          string `json:"persona,omitempty"`
	LatencyMs        int64  `json:"latency_ms,omitempty"`
	KnowledgeSources int    `json:"knowledge_sources,omitempty"`
	ContextTag       string `json:"context_tag,omitempty"`
}

// Message is one bubble in the log. It is never mutated after it is appended.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// User bubbles only.
	Attachments []Attachment `json:"attachments,omitempty"`

	// Assistant bubbles only. Error bubbles carry neither metadata nor actions.
	Meta    *Meta `json:"meta,omitempty"`
	IsError bool  `json:"is_error,omitempty"`
}

// NewUserMessage creates a user bubble with a local id.
func NewUserMessage(content string, attachments []Attachment) *Message {
	var atts []Attachment
	if len(attachments) > 0 {
		atts = append(atts, attachments...)
	}
	return &Message{
		ID:          NewLocalID(),
		Role:        RoleUser,
		Content:     content,
		Timestamp:   time.Now(),
		Attachments: atts,
	}
}

// NewAssistantMessage creates a normal assistant bubble. An empty id is
// replaced with a local one.
func NewAssistantMessage(id, content string, meta Meta) *Message {
	if id == "" {
		id = NewLocalID()
	}
	return &Message{
		ID:        id,
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
		Meta:      &meta,
	}
}

// NewErrorMessage creates an assistant bubble of the error variant.
func NewErrorMessage(content string) *Message {
	return &Message{
		ID:        NewLocalID(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
		IsError:   true,
	}
}

// HasActions reports whether the bubble shows the assistant action row.
func (m *Message) HasActions() bool {
	return m.Role == RoleAssistant && !m.IsError
}

// NewLocalID returns an id for bubbles the server has not named.
func NewLocalID() string {
	return "local_" + uuid.NewString()
}
