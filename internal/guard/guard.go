// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package guard decides whether a submit request may start a turn.
//
// Enter and a send action can fire within milliseconds of each other, so
// admission stamps the in-flight flag, the timestamp and the payload hash
// in one critical section before any I/O starts.
package guard

import (
	"bytes"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/syntaxchat/internal/model"
)

// Default timings.
const (
	DefaultCooldown        = 1000 * time.Millisecond
	DefaultDuplicateWindow = 5000 * time.Millisecond
)

// =============================================================================
// REASONS
// =============================================================================

// Reason explains a rejection. It is diagnostic only.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonEmpty
	ReasonBusy
	ReasonCooldown
	ReasonDuplicateContent
)

// String returns the trace name of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonEmpty:
		return "empty"
	case ReasonBusy:
		return "busy"
	case ReasonCooldown:
		return "cooldown"
	case ReasonDuplicateContent:
		return "duplicate_content"
	default:
		return "unknown"
	}
}

// Decision is the result of TryAdmit.
type Decision struct {
	Admitted bool
	Reason   Reason
	// At is the admission instant. Zero for rejections.
	At time.Time
}

// =============================================================================
// GUARD
// =============================================================================

// Guard is the admission controller for one session.
type Guard struct {
	mu sync.Mutex

	cooldown time.Duration
	window   time.Duration
	now      func() time.Time

	inFlight bool
	lastAt   time.Time
	lastHash [blake2b.Size256]byte
	admitted bool // whether lastAt/lastHash hold anything yet
}

// Option configures a Guard.
type Option func(*Guard)

// WithCooldown sets the minimum gap between admissions.
func WithCooldown(d time.Duration) Option {
	return func(g *Guard) {
		if d >= 0 {
			g.cooldown = d
		}
	}
}

// WithDuplicateWindow sets how long identical content stays blocked.
func WithDuplicateWindow(d time.Duration) Option {
	return func(g *Guard) {
		if d >= 0 {
			g.window = d
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a Guard with the default timings.
func New(opts ...Option) *Guard {
	g := &Guard{
		cooldown: DefaultCooldown,
		window:   DefaultDuplicateWindow,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TryAdmit checks text (already trimmed) and the staged attachments. On
// admission the guard is in flight until Release is called.
func (g *Guard) TryAdmit(text string, attachments []model.Attachment) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if text == "" && len(attachments) == 0 {
		return g.reject(ReasonEmpty)
	}
	if g.inFlight {
		return g.reject(ReasonBusy)
	}

	now := g.now()
	hash := PayloadHash(text, attachments)
	if g.admitted {
		gap := now.Sub(g.lastAt)
		if gap < g.cooldown {
			return g.reject(ReasonCooldown)
		}
		if bytes.Equal(hash[:], g.lastHash[:]) && gap <= g.window {
			return g.reject(ReasonDuplicateContent)
		}
	}

	g.inFlight = true
	g.lastAt = now
	g.lastHash = hash
	g.admitted = true

	return Decision{Admitted: true, At: now}
}

func (g *Guard) reject(reason Reason) Decision {
	log.Debug().Str("reason", reason.String()).Msg("submission rejected")
	return Decision{Reason: reason}
}

// InFlight reports whether a turn is outstanding.
func (g *Guard) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Release clears the in-flight flag. The cooldown and replay history are kept.
func (g *Guard) Release() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// PayloadHash is the replay identity of a submission: NFC-normalised text
// plus the attachment descriptors.
func PayloadHash(text string, attachments []model.Attachment) [blake2b.Size256]byte {
	var buf bytes.Buffer
	buf.WriteString(norm.NFC.String(text))
	for _, a := range attachments {
		buf.WriteByte(0)
		buf.WriteString(a.Descriptor())
	}
	return blake2b.Sum256(buf.Bytes())
}
