// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the per-run chat state: the backend base URL, the
// current thread, the selected persona, staged attachments and the
// submission guard. One Session is created when the client starts and lives
// until it exits.
package session

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/jeranaias/syntaxchat/internal/guard"
	"github.com/jeranaias/syntaxchat/internal/model"
)

// ErrBusy is returned when state that belongs to the outstanding turn is
// changed while the turn is in flight.
var ErrBusy = errors.New("a turn is in flight")

// =============================================================================
// SESSION
// =============================================================================

// Session is the shared mutable state of the chat surface.
type Session struct {
	mu sync.Mutex

	baseURL     string
	threadID    string // "" means no thread yet
	personaID   string
	attachments []model.Attachment

	guard *guard.Guard
}

// New creates a Session. A nil guard gets the default timings.
func New(baseURL, personaID string, g *guard.Guard) *Session {
	if g == nil {
		g = guard.New()
	}
	return &Session{
		baseURL:   baseURL,
		personaID: personaID,
		guard:     g,
	}
}

// BaseURL returns the backend base URL.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Guard returns the admission controller.
func (s *Session) Guard() *guard.Guard {
	return s.guard
}

// InFlight reports whether a turn is outstanding.
func (s *Session) InFlight() bool {
	return s.guard.InFlight()
}

// -----------------------------------------------------------------------------
// Thread
// -----------------------------------------------------------------------------

// ThreadID returns the current thread id and whether one is set.
func (s *Session) ThreadID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID, s.threadID != ""
}

// ThreadRef returns the thread id for the wire: nil when no thread is set.
func (s *Session) ThreadRef() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.threadID == "" {
		return nil
	}
	id := s.threadID
	return &id
}

// AdoptThread records the thread id the backend assigned.
func (s *Session) AdoptThread(id string) {
	s.mu.Lock()
	s.threadID = id
	s.mu.Unlock()
}

// ResetThread forgets the current thread so the next turn starts a new one.
func (s *Session) ResetThread() {
	s.AdoptThread("")
}

// -----------------------------------------------------------------------------
// Persona
// -----------------------------------------------------------------------------

// Persona returns the selected persona id.
func (s *Session) Persona() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.personaID
}

// SetPersona selects a persona for subsequent turns.
func (s *Session) SetPersona(id string) {
	s.mu.Lock()
	s.personaID = id
	s.mu.Unlock()
}

// -----------------------------------------------------------------------------
// Attachments
// -----------------------------------------------------------------------------

// AddAttachment stages a file for the next turn.
func (s *Session) AddAttachment(a model.Attachment) error {
	if s.guard.InFlight() {
		return ErrBusy
	}
	s.mu.Lock()
	s.attachments = append(s.attachments, a)
	s.mu.Unlock()
	return nil
}

// Attachments returns a copy of the staged attachments.
func (s *Session) Attachments() []model.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.attachments) == 0 {
		return nil
	}
	out := make([]model.Attachment, len(s.attachments))
	copy(out, s.attachments)
	return out
}

// ClearAttachments drops every staged attachment.
func (s *Session) ClearAttachments() {
	s.mu.Lock()
	s.attachments = nil
	s.mu.Unlock()
}
