// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// Persona is a backend-defined behavioural profile.
type Persona struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// Label returns the display name, falling back to the id.
func (p Persona) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// DefaultPersona returns the persona flagged as default, or the first one.
// ok is false when the list is empty.
func DefaultPersona(list []Persona) (p Persona, ok bool) {
	if len(list) == 0 {
		return Persona{}, false
	}
	for _, candidate := range list {
		if candidate.IsDefault {
			return candidate, true
		}
	}
	return list[0], true
}

// FindPersona looks a persona up by id.
func FindPersona(list []Persona, id string) (Persona, bool) {
	for _, p := range list {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

// ConversationSummary is one entry of the server-side conversation list.
type ConversationSummary struct {
	ThreadID      string    `json:"thread_id"`
	Title         string    `json:"title"`
	MessageCount  int       `json:"message_count"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// DisplayTitle returns the title, or a placeholder for untitled threads.
func (c ConversationSummary) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "Untitled conversation"
}
