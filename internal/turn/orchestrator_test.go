// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/guard"
	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/msglog"
	"github.com/jeranaias/syntaxchat/internal/session"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingSurface struct {
	mu      sync.Mutex
	enabled bool
	cleared int
	focused int
	events  []string
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{enabled: true}
}

func (s *recordingSurface) SetInputEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	if enabled {
		s.events = append(s.events, "enable")
	} else {
		s.events = append(s.events, "disable")
	}
}

func (s *recordingSurface) ClearComposer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	s.events = append(s.events, "clear")
}

func (s *recordingSurface) FocusInput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused++
	s.events = append(s.events, "focus")
}

type chatFunc func(ctx context.Context, req *backend.ChatRequest) (*backend.ChatResponse, error)

func (f chatFunc) Chat(ctx context.Context, req *backend.ChatRequest) (*backend.ChatResponse, error) {
	return f(ctx, req)
}

type harness struct {
	clock   *fakeClock
	sess    *session.Session
	log     *msglog.Log
	surface *recordingSurface
	orch    *Orchestrator
	calls   atomic.Int32
	reqs    []*backend.ChatRequest
	mu      sync.Mutex
}

func newHarness(t *testing.T, respond chatFunc) *harness {
	t.Helper()
	h := &harness{
		clock:   &fakeClock{t: time.Date(2025, 3, 14, 13, 5, 0, 0, time.UTC)},
		log:     msglog.New(),
		surface: newRecordingSurface(),
	}
	h.sess = session.New("http://backend", "syntaxprime", guard.New(guard.WithClock(h.clock.Now)))

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		berlin = time.UTC
	}
	chat := chatFunc(func(ctx context.Context, req *backend.ChatRequest) (*backend.ChatResponse, error) {
		h.calls.Add(1)
		h.mu.Lock()
		h.reqs = append(h.reqs, req)
		h.mu.Unlock()
		return respond(ctx, req)
	})
	h.orch = New(h.sess, h.log, chat, h.surface, WithClock(h.clock.Now), WithZone(berlin))
	return h
}

func reply(text, thread, id string) chatFunc {
	return func(context.Context, *backend.ChatRequest) (*backend.ChatResponse, error) {
		return &backend.ChatResponse{
			Response:        text,
			ThreadID:        thread,
			MessageID:       id,
			PersonalityUsed: "syntaxprime",
			ResponseTimeMs:  412,
		}, nil
	}
}

func (h *harness) assertIdle(t *testing.T) {
	t.Helper()
	assert.False(t, h.sess.InFlight())
	assert.True(t, h.surface.enabled)
	_, typing := h.log.Typing()
	assert.False(t, typing)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestSubmit_FirstTurnHappyPath(t *testing.T) {
	h := newHarness(t, reply("Hi there.", "t1", "m1"))

	res := h.orch.Submit(context.Background(), "  Hello ")
	require.True(t, res.Decision.Admitted)
	require.NoError(t, res.Outcome.Err)

	require.Len(t, h.reqs, 1)
	req := h.reqs[0]
	assert.Equal(t, "Hello", req.Message)
	assert.Equal(t, "syntaxprime", req.PersonalityID)
	assert.Nil(t, req.ThreadID)
	assert.True(t, req.IncludeKnowledge)
	assert.Equal(t, "2025-03-14", req.DatetimeContext.CurrentDate)
	assert.Equal(t, h.clock.Now().Unix(), req.DatetimeContext.UnixTimestamp)
	assert.Contains(t, req.ClientMetadata.ClientMessageID, "msg_")

	entries := h.log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, model.RoleUser, entries[0].Role)
	assert.Equal(t, "Hello", entries[0].Content)
	assert.Equal(t, model.RoleAssistant, entries[1].Role)
	assert.Equal(t, "Hi there.", entries[1].Content)
	assert.Equal(t, "m1", entries[1].ID)
	require.NotNil(t, entries[1].Meta)
	assert.Equal(t, "syntaxprime", entries[1].Meta.Persona)
	assert.Equal(t, int64(412), entries[1].Meta.LatencyMs)
	assert.True(t, entries[1].HasActions())

	thread, ok := h.sess.ThreadID()
	require.True(t, ok)
	assert.Equal(t, "t1", thread)
	h.assertIdle(t)
	assert.Equal(t, []string{"disable", "clear", "enable", "focus"}, h.surface.events)
}

func TestSubmit_ThreadContinuityAndReplayWindow(t *testing.T) {
	h := newHarness(t, reply("Hi there.", "t1", "m1"))
	require.True(t, h.orch.Submit(context.Background(), "Hello").Decision.Admitted)

	h.clock.Advance(3 * time.Second)
	res := h.orch.Submit(context.Background(), "Hello")
	assert.False(t, res.Decision.Admitted)
	assert.Equal(t, guard.ReasonDuplicateContent, res.Decision.Reason)
	assert.Equal(t, int32(1), h.calls.Load())
	assert.Equal(t, 2, h.log.Len())

	h.clock.Advance(3 * time.Second)
	res = h.orch.Submit(context.Background(), "Hello")
	require.True(t, res.Decision.Admitted)
	require.Len(t, h.reqs, 2)
	require.NotNil(t, h.reqs[1].ThreadID)
	assert.Equal(t, "t1", *h.reqs[1].ThreadID)
}

func TestSubmit_EmptyRejectedWithoutSideEffects(t *testing.T) {
	h := newHarness(t, reply("x", "t1", "m1"))
	res := h.orch.Submit(context.Background(), "   ")
	assert.False(t, res.Decision.Admitted)
	assert.Equal(t, guard.ReasonEmpty, res.Decision.Reason)
	assert.Zero(t, h.calls.Load())
	assert.True(t, h.log.Welcome())
	assert.Empty(t, h.surface.events)
}

func TestSubmit_AttachmentOnly(t *testing.T) {
	h := newHarness(t, reply("Got it.", "t1", "m1"))
	require.NoError(t, h.sess.AddAttachment(model.Attachment{Name: "pic.png", MIMEType: "image/png", Size: 12}))

	res := h.orch.Submit(context.Background(), "")
	require.True(t, res.Decision.Admitted)
	assert.Equal(t, "", h.reqs[0].Message)

	entries := h.log.Entries()
	require.Len(t, entries, 2)
	require.Len(t, entries[0].Attachments, 1)
	assert.Equal(t, "pic.png", entries[0].Attachments[0].Name)
	assert.Empty(t, h.sess.Attachments())
}

func TestSubmit_NetworkFailure(t *testing.T) {
	h := newHarness(t, func(context.Context, *backend.ChatRequest) (*backend.ChatResponse, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	require.NoError(t, h.sess.AddAttachment(model.Attachment{Name: "a.txt"}))

	res := h.orch.Submit(context.Background(), "Hi")
	require.True(t, res.Decision.Admitted)
	require.Error(t, res.Outcome.Err)

	entries := h.log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Hi", entries[0].Content)
	assert.True(t, entries[1].IsError)
	assert.Equal(t, FailureNetwork.Message(), entries[1].Content)
	assert.Nil(t, entries[1].Meta)
	assert.False(t, entries[1].HasActions())

	assert.Empty(t, h.sess.Attachments())
	_, ok := h.sess.ThreadID()
	assert.False(t, ok)
	h.assertIdle(t)
}

func TestSubmit_TypingShownDuringSend(t *testing.T) {
	var h *harness
	var sawTyping, sawInFlight, sawDisabled bool
	h = newHarness(t, func(context.Context, *backend.ChatRequest) (*backend.ChatResponse, error) {
		_, sawTyping = h.log.Typing()
		sawInFlight = h.sess.InFlight()
		sawDisabled = !h.surface.enabled
		return nil, errors.New("offline")
	})

	h.orch.Submit(context.Background(), "Hi")
	assert.True(t, sawTyping)
	assert.True(t, sawInFlight)
	assert.True(t, sawDisabled)
	h.assertIdle(t)
}

func TestSubmit_HTTP500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"database down"}`)
	}))
	defer srv.Close()

	log := msglog.New()
	sess := session.New(srv.URL, "syntaxprime", nil)
	sess.AdoptThread("t1")
	surface := newRecordingSurface()
	orch := New(sess, log, backend.NewClient(srv.URL, "tok"), surface)

	res := orch.Submit(context.Background(), "Hi")
	require.True(t, res.Decision.Admitted)

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].IsError)
	assert.Equal(t, FailureServer.Message(), entries[1].Content)
	assert.NotContains(t, entries[1].Content, "database down")

	thread, _ := sess.ThreadID()
	assert.Equal(t, "t1", thread)
	assert.False(t, sess.InFlight())
	assert.True(t, surface.enabled)
}

func TestSubmit_RequestBodyAgainstServer(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		io.WriteString(w, `{"response":"Hi there.","thread_id":"t1","message_id":"m1","personality_used":"syntaxprime","response_time_ms":412}`)
	}))
	defer srv.Close()

	orch := New(session.New(srv.URL, "syntaxprime", nil), msglog.New(), backend.NewClient(srv.URL, "tok"), nil)
	res := orch.Submit(context.Background(), "Hello")
	require.NoError(t, res.Outcome.Err)

	for _, key := range []string{"message", "personality_id", "thread_id", "include_knowledge", "datetime_context", "client_metadata"} {
		assert.Contains(t, body, key)
	}
	assert.Nil(t, body["thread_id"])
}

func TestSubmit_ChatPanics(t *testing.T) {
	h := newHarness(t, func(context.Context, *backend.ChatRequest) (*backend.ChatResponse, error) {
		panic("boom")
	})

	res := h.orch.Submit(context.Background(), "Hi")
	require.Error(t, res.Outcome.Err)
	assert.Equal(t, FailureInternal, Classify(res.Outcome.Err))

	entries := h.log.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].IsError)
	h.assertIdle(t)
}

func TestSubmit_NilResponseIsFailure(t *testing.T) {
	h := newHarness(t, func(context.Context, *backend.ChatRequest) (*backend.ChatResponse, error) {
		return nil, nil
	})
	h.orch.Submit(context.Background(), "Hi")
	entries := h.log.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].IsError)
	h.assertIdle(t)
}

type panickySurface struct {
	recordingSurface
	panicOnClear bool
}

func (s *panickySurface) ClearComposer() {
	if s.panicOnClear {
		panic("surface gone")
	}
	s.recordingSurface.ClearComposer()
}

func TestBegin_PanicStillCompletes(t *testing.T) {
	var calls atomic.Int32
	chat := chatFunc(func(context.Context, *backend.ChatRequest) (*backend.ChatResponse, error) {
		calls.Add(1)
		return nil, nil
	})
	surface := &panickySurface{recordingSurface: recordingSurface{enabled: true}, panicOnClear: true}
	sess := session.New("", "p", nil)
	log := msglog.New()
	orch := New(sess, log, chat, surface)

	res := orch.Submit(context.Background(), "Hi")
	require.True(t, res.Decision.Admitted)
	assert.Zero(t, calls.Load())
	assert.Equal(t, FailureInternal, Classify(res.Outcome.Err))

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].IsError)
	assert.False(t, sess.InFlight())
	assert.True(t, surface.enabled)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestBegin_SecondSubmitWhileInFlightIsBusy(t *testing.T) {
	h := newHarness(t, reply("Pong", "t1", "m1"))

	p, d := h.orch.Begin("Ping")
	require.NotNil(t, p)
	require.True(t, d.Admitted)

	h.clock.Advance(200 * time.Millisecond)
	p2, d2 := h.orch.Begin("Ping")
	assert.Nil(t, p2)
	assert.Equal(t, guard.ReasonBusy, d2.Reason)

	h.orch.Complete(p, h.orch.Send(context.Background(), p))
	assert.Equal(t, int32(1), h.calls.Load())
	assert.Equal(t, 2, h.log.Len())
	h.assertIdle(t)
}

func TestSubmit_AtMostOneOutstandingCall(t *testing.T) {
	var outstanding, maxOutstanding atomic.Int32
	release := make(chan struct{})
	h := newHarness(t, func(context.Context, *backend.ChatRequest) (*backend.ChatResponse, error) {
		n := outstanding.Add(1)
		for {
			m := maxOutstanding.Load()
			if n <= m || maxOutstanding.CompareAndSwap(m, n) {
				break
			}
		}
		<-release
		outstanding.Add(-1)
		return &backend.ChatResponse{Response: "ok", ThreadID: "t1"}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.orch.Submit(context.Background(), "same")
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), maxOutstanding.Load())
	assert.Equal(t, int32(1), h.calls.Load())
	assert.Equal(t, 2, h.log.Len())
}

// =============================================================================
// NEW CHAT AND REPLAY
// =============================================================================

func TestNewChat_ResetsThread(t *testing.T) {
	h := newHarness(t, reply("Hi there.", "t1", "m1"))
	h.orch.Submit(context.Background(), "Hello")

	require.True(t, h.orch.NewChat())
	assert.True(t, h.log.Welcome())
	assert.Zero(t, h.log.Len())
	_, ok := h.sess.ThreadID()
	assert.False(t, ok)

	h.clock.Advance(2 * time.Second)
	h.orch.Submit(context.Background(), "Next")
	require.Len(t, h.reqs, 2)
	assert.Nil(t, h.reqs[1].ThreadID)
}

func TestNewChat_NoOpWhileInFlight(t *testing.T) {
	h := newHarness(t, reply("Hi", "t9", "m1"))
	h.sess.AdoptThread("t1")

	p, _ := h.orch.Begin("Hello")
	require.NotNil(t, p)

	assert.False(t, h.orch.NewChat())
	thread, _ := h.sess.ThreadID()
	assert.Equal(t, "t1", thread)
	assert.Equal(t, 1, h.log.Len())

	h.orch.Complete(p, h.orch.Send(context.Background(), p))
	thread, _ = h.sess.ThreadID()
	assert.Equal(t, "t9", thread)
}

func TestReplay(t *testing.T) {
	h := newHarness(t, reply("x", "t1", "m1"))
	msgs := []backend.HistoryMessage{
		{ID: "m1", Role: model.RoleUser, Content: "Hello"},
		{ID: "m2", Role: model.RoleAssistant, Content: "Hi there."},
	}

	require.True(t, h.orch.Replay("t7", msgs))
	entries := h.log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "m1", entries[0].ID)
	assert.Equal(t, model.RoleAssistant, entries[1].Role)
	assert.True(t, entries[1].HasActions())

	thread, _ := h.sess.ThreadID()
	assert.Equal(t, "t7", thread)

	p, _ := h.orch.Begin("more")
	require.NotNil(t, p)
	assert.False(t, h.orch.Replay("t8", nil))
	h.orch.Complete(p, h.orch.Send(context.Background(), p))
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want FailureKind
	}{
		{errors.New("connection refused"), FailureNetwork},
		{errors.Wrap(context.DeadlineExceeded, "post"), FailureTimeout},
		{errors.Wrap(timeoutErr{}, "post"), FailureTimeout},
		{&backend.APIError{Status: 401, Detail: "x"}, FailureAuth},
		{&backend.APIError{Status: 403, Detail: "x"}, FailureAuth},
		{&backend.APIError{Status: 504, Detail: "x"}, FailureTimeout},
		{&backend.APIError{Status: 502, Detail: "x"}, FailureServer},
		{&backend.APIError{Status: 422, Detail: "x"}, FailureClient},
		{errors.Wrap(backend.ErrMissingField, "thread_id"), FailureSchema},
		{errors.Wrap(backend.ErrMalformedResponse, "x"), FailureSchema},
		{&PanicError{Value: "x"}, FailureInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err), tc.err.Error())
	}
}

func TestFailureMessagesAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for k := FailureNetwork; k <= FailureInternal; k++ {
		msg := k.Message()
		assert.NotEmpty(t, msg)
		assert.False(t, seen[msg], k.String())
		seen[msg] = true
	}
	assert.Contains(t, FailureAuth.Message(), "session has expired")
}
