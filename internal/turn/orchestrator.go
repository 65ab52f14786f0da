// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package turn carries one admitted submission from the composer to the
// backend and back into the message log.
//
// A turn has three phases so an event loop can keep the network call off
// its own goroutine:
//
//	p, d := o.Begin(text)      // admission, user bubble, typing, request
//	out := o.Send(ctx, p)      // the only blocking step
//	o.Complete(p, out)         // assistant or error bubble, then cleanup
//
// Complete always re-enables the surface and releases the guard, whatever
// happened before. Submit runs all three phases in sequence.
package turn

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/envelope"
	"github.com/jeranaias/syntaxchat/internal/guard"
	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/msglog"
	"github.com/jeranaias/syntaxchat/internal/session"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Chatter sends a turn to the backend.
type Chatter interface {
	Chat(ctx context.Context, req *backend.ChatRequest) (*backend.ChatResponse, error)
}

// Surface is the interactive input area: text field, send action and file
// control.
type Surface interface {
	// SetInputEnabled enables or disables (and dims) every input control.
	SetInputEnabled(enabled bool)
	// ClearComposer empties the text field and the character counter.
	ClearComposer()
	// FocusInput returns focus to the text field once the view settles.
	FocusInput()
}

// NopSurface is a Surface for callers without an input area.
type NopSurface struct{}

func (NopSurface) SetInputEnabled(bool) {}
func (NopSurface) ClearComposer()       {}
func (NopSurface) FocusInput()          {}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator runs turns for one session.
type Orchestrator struct {
	sess    *session.Session
	log     *msglog.Log
	chat    Chatter
	surface Surface

	now              func() time.Time
	zone             func() *time.Location
	includeKnowledge bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the wall clock used for envelopes and metadata.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithZone fixes the time zone reported in envelopes.
func WithZone(loc *time.Location) Option {
	return func(o *Orchestrator) {
		if loc != nil {
			o.zone = func() *time.Location { return loc }
		}
	}
}

// WithIncludeKnowledge sets the include_knowledge flag. It defaults to true.
func WithIncludeKnowledge(include bool) Option {
	return func(o *Orchestrator) {
		o.includeKnowledge = include
	}
}

// New creates an Orchestrator. A nil surface is replaced by NopSurface.
func New(sess *session.Session, l *msglog.Log, chat Chatter, surface Surface, opts ...Option) *Orchestrator {
	if surface == nil {
		surface = NopSurface{}
	}
	o := &Orchestrator{
		sess:             sess,
		log:              l,
		chat:             chat,
		surface:          surface,
		now:              time.Now,
		zone:             envelope.HostZone,
		includeKnowledge: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Session returns the session the orchestrator drives.
func (o *Orchestrator) Session() *session.Session {
	return o.sess
}

// Log returns the message log the orchestrator appends to.
func (o *Orchestrator) Log() *msglog.Log {
	return o.log
}

// Pending is an admitted turn between Begin and Complete.
type Pending struct {
	Request    *backend.ChatRequest
	AdmittedAt time.Time

	// err is set when preparing the request failed; Send then skips the call.
	err error
}

// Outcome is the result of Send.
type Outcome struct {
	Response *backend.ChatResponse
	Err      error
}

// Result summarises a Submit call.
type Result struct {
	Decision guard.Decision
	Outcome  Outcome
}

// Begin asks the guard to admit text with the staged attachments and, when
// admitted, disables the surface, renders the user bubble, clears the
// composer and attachments, shows the typing indicator and builds the
// request. A nil Pending means the submission was rejected and nothing
// changed.
func (o *Orchestrator) Begin(text string) (*Pending, guard.Decision) {
	text = strings.TrimSpace(text)
	attachments := o.sess.Attachments()

	decision := o.sess.Guard().TryAdmit(text, attachments)
	if !decision.Admitted {
		return nil, decision
	}

	p := &Pending{AdmittedAt: decision.At}
	func() {
		defer func() {
			if r := recover(); r != nil {
				p.err = &PanicError{Value: r}
			}
		}()

		o.surface.SetInputEnabled(false)
		o.log.AppendUser(text, attachments)
		o.surface.ClearComposer()
		o.sess.ClearAttachments()
		o.log.ShowTyping()
		p.Request = o.buildRequest(text, decision.At)
	}()

	log.Debug().
		Str("persona", o.sess.Persona()).
		Int("attachments", len(attachments)).
		Bool("new_thread", o.sess.ThreadRef() == nil).
		Msg("turn admitted")
	return p, decision
}

// buildRequest samples the envelope no earlier than the admission instant.
func (o *Orchestrator) buildRequest(text string, admittedAt time.Time) *backend.ChatRequest {
	now := o.now()
	if now.Before(admittedAt) {
		now = admittedAt
	}
	return &backend.ChatRequest{
		Message:          text,
		PersonalityID:    o.sess.Persona(),
		ThreadID:         o.sess.ThreadRef(),
		IncludeKnowledge: o.includeKnowledge,
		DatetimeContext:  envelope.Build(now, o.zone()),
		ClientMetadata:   backend.NewClientMetadata(now),
	}
}

// Send performs the HTTP call. It never panics.
func (o *Orchestrator) Send(ctx context.Context, p *Pending) (out Outcome) {
	if p == nil {
		return Outcome{Err: &PanicError{Value: "send without an admitted turn"}}
	}
	if p.err != nil {
		return Outcome{Err: p.err}
	}
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: &PanicError{Value: r}}
		}
	}()

	resp, err := o.chat.Chat(ctx, p.Request)
	if err == nil && resp == nil {
		err = &PanicError{Value: "chat returned no response"}
	}
	return Outcome{Response: resp, Err: err}
}

// Complete renders the outcome and then, on every path, re-enables the
// surface, releases the guard and restores focus.
func (o *Orchestrator) Complete(p *Pending, out Outcome) {
	defer o.finish()

	rendered := false
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("turn completion panicked")
			if !rendered {
				o.log.AppendError(FailureInternal.Message())
			}
		}
	}()

	o.log.HideTyping()

	if out.Err != nil {
		kind := Classify(out.Err)
		log.Warn().Err(out.Err).Str("kind", kind.String()).Msg("turn failed")
		rendered = true
		o.log.AppendError(kind.Message())
		return
	}

	resp := out.Response
	o.sess.AdoptThread(resp.ThreadID)

	persona := resp.PersonalityUsed
	if persona == "" && p != nil && p.Request != nil {
		persona = p.Request.PersonalityID
	}
	rendered = true
	o.log.AppendAssistant(resp.MessageID, resp.Response, model.Meta{
		Persona:          persona,
		LatencyMs:        resp.ResponseTimeMs,
		KnowledgeSources: len(resp.KnowledgeSources),
		ContextTag:       string(resp.DatetimeContextUsed),
	})
	log.Debug().
		Str("thread_id", resp.ThreadID).
		Str("message_id", resp.MessageID).
		Int64("latency_ms", resp.ResponseTimeMs).
		Msg("turn completed")
}

func (o *Orchestrator) finish() {
	defer o.sess.Guard().Release()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("surface restore panicked")
		}
	}()
	o.surface.SetInputEnabled(true)
	o.surface.FocusInput()
}

// Submit runs a whole turn synchronously.
func (o *Orchestrator) Submit(ctx context.Context, text string) Result {
	p, decision := o.Begin(text)
	if p == nil {
		return Result{Decision: decision}
	}
	out := o.Send(ctx, p)
	o.Complete(p, out)
	return Result{Decision: decision, Outcome: out}
}

// =============================================================================
// NEW CHAT AND HISTORY
// =============================================================================

// NewChat forgets the thread and clears the log. It does nothing and returns
// false while a turn is in flight.
func (o *Orchestrator) NewChat() bool {
	if o.sess.InFlight() {
		log.Debug().Msg("new chat ignored: turn in flight")
		return false
	}
	o.sess.ResetThread()
	o.log.Reset()
	return true
}

// Replay renders a stored conversation and makes it the current thread. It
// does nothing and returns false while a turn is in flight.
func (o *Orchestrator) Replay(threadID string, msgs []backend.HistoryMessage) bool {
	if o.sess.InFlight() {
		log.Debug().Msg("history replay ignored: turn in flight")
		return false
	}
	o.log.Reset()
	for _, m := range msgs {
		o.log.Append(&model.Message{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.CreatedAt,
		})
	}
	o.sess.AdoptThread(threadID)
	return true
}
