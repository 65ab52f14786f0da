// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package guard

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/syntaxchat/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
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

func newTestGuard() (*Guard, *fakeClock) {
	clock := newFakeClock()
	return New(WithClock(clock.Now)), clock
}

func TestTryAdmit_Empty(t *testing.T) {
	g, _ := newTestGuard()
	d := g.TryAdmit("", nil)
	assert.False(t, d.Admitted)
	assert.Equal(t, ReasonEmpty, d.Reason)
	assert.False(t, g.InFlight())
}

func TestTryAdmit_EmptyTextWithAttachment(t *testing.T) {
	g, clock := newTestGuard()
	d := g.TryAdmit("", []model.Attachment{{Name: "a.png", MIMEType: "image/png", Size: 10}})
	require.True(t, d.Admitted)
	assert.Equal(t, clock.Now(), d.At)
	assert.True(t, g.InFlight())
}

func TestTryAdmit_BusyWhileInFlight(t *testing.T) {
	g, clock := newTestGuard()
	require.True(t, g.TryAdmit("one", nil).Admitted)

	clock.Advance(10 * time.Second)
	d := g.TryAdmit("two", nil)
	assert.False(t, d.Admitted)
	assert.Equal(t, ReasonBusy, d.Reason)

	// Empty is checked before busy.
	assert.Equal(t, ReasonEmpty, g.TryAdmit("", nil).Reason)
}

func TestTryAdmit_CooldownBoundary(t *testing.T) {
	g, clock := newTestGuard()
	require.True(t, g.TryAdmit("first", nil).Admitted)
	g.Release()

	clock.Advance(999 * time.Millisecond)
	d := g.TryAdmit("second", nil)
	assert.Equal(t, ReasonCooldown, d.Reason)

	clock.Advance(time.Millisecond)
	assert.True(t, g.TryAdmit("second", nil).Admitted)
}

func TestTryAdmit_DoubleClick(t *testing.T) {
	g, clock := newTestGuard()
	require.True(t, g.TryAdmit("Ping", nil).Admitted)

	clock.Advance(200 * time.Millisecond)
	d := g.TryAdmit("Ping", nil)
	assert.False(t, d.Admitted)
	assert.Equal(t, ReasonBusy, d.Reason)
}

func TestTryAdmit_ReplayWithinWindow(t *testing.T) {
	g, clock := newTestGuard()
	require.True(t, g.TryAdmit("Hello", nil).Admitted)
	g.Release()

	clock.Advance(3 * time.Second)
	d := g.TryAdmit("Hello", nil)
	assert.False(t, d.Admitted)
	assert.Equal(t, ReasonDuplicateContent, d.Reason)
	assert.False(t, g.InFlight())
}

func TestTryAdmit_ReplayWindowBoundary(t *testing.T) {
	g, clock := newTestGuard()
	require.True(t, g.TryAdmit("Hello", nil).Admitted)
	g.Release()

	clock.Advance(5 * time.Second)
	assert.Equal(t, ReasonDuplicateContent, g.TryAdmit("Hello", nil).Reason)

	clock.Advance(time.Millisecond)
	assert.True(t, g.TryAdmit("Hello", nil).Admitted)
}

func TestTryAdmit_ReplayAfterWindow(t *testing.T) {
	g, clock := newTestGuard()
	require.True(t, g.TryAdmit("Hello", nil).Admitted)
	g.Release()

	clock.Advance(6 * time.Second)
	d := g.TryAdmit("Hello", nil)
	require.True(t, d.Admitted)
	assert.Equal(t, clock.Now(), d.At)
}

func TestTryAdmit_SameTextDifferentAttachments(t *testing.T) {
	g, clock := newTestGuard()
	require.True(t, g.TryAdmit("look", nil).Admitted)
	g.Release()

	clock.Advance(2 * time.Second)
	atts := []model.Attachment{{Name: "x.txt", MIMEType: "text/plain", Size: 1}}
	assert.True(t, g.TryAdmit("look", atts).Admitted)
}

func TestTryAdmit_NormalisedReplay(t *testing.T) {
	g, clock := newTestGuard()
	// "é" precomposed vs. "e" + combining acute accent.
	require.True(t, g.TryAdmit("caf\u00e9", nil).Admitted)
	g.Release()

	clock.Advance(2 * time.Second)
	assert.Equal(t, ReasonDuplicateContent, g.TryAdmit("cafe\u0301", nil).Reason)
}

func TestTryAdmit_RejectionDoesNotStamp(t *testing.T) {
	g, clock := newTestGuard()
	require.True(t, g.TryAdmit("a", nil).Admitted)
	g.Release()

	clock.Advance(500 * time.Millisecond)
	require.Equal(t, ReasonCooldown, g.TryAdmit("b", nil).Reason)

	// 1000ms after the admission, not after the rejection.
	clock.Advance(500 * time.Millisecond)
	assert.True(t, g.TryAdmit("b", nil).Admitted)
}

func TestCustomTimings(t *testing.T) {
	clock := newFakeClock()
	g := New(WithClock(clock.Now), WithCooldown(0), WithDuplicateWindow(0))
	require.True(t, g.TryAdmit("x", nil).Admitted)
	g.Release()
	clock.Advance(time.Nanosecond)
	assert.True(t, g.TryAdmit("x", nil).Admitted)
}

func TestConcurrentAdmission(t *testing.T) {
	g := New()
	var admitted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAdmit("race", nil).Admitted {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
	assert.True(t, g.InFlight())
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "empty", ReasonEmpty.String())
	assert.Equal(t, "busy", ReasonBusy.String())
	assert.Equal(t, "cooldown", ReasonCooldown.String())
	assert.Equal(t, "duplicate_content", ReasonDuplicateContent.String())
}
