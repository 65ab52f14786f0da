// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"

	"github.com/jeranaias/syntaxchat/internal/util"
)

// composer is the input area. It implements turn.Surface. The model holds
// it by pointer so the orchestrator and Update see the same state.
type composer struct {
	area         textarea.Model
	enabled      bool
	focusPending bool
}

func newComposer(maxChars int, newline key.Binding) *composer {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = "│ "
	ta.ShowLineNumbers = false
	ta.CharLimit = maxChars
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = newline
	ta.Focus()
	return &composer{area: ta, enabled: true}
}

// SetInputEnabled disables or re-enables typing.
func (c *composer) SetInputEnabled(enabled bool) {
	c.enabled = enabled
	if !enabled {
		c.area.Blur()
	}
}

// ClearComposer empties the text, which also resets the counter.
func (c *composer) ClearComposer() {
	c.area.Reset()
}

// FocusInput requests focus. The model applies it after the settle delay.
func (c *composer) FocusInput() {
	c.focusPending = true
}

// takeFocusRequest reports and clears a pending focus request.
func (c *composer) takeFocusRequest() bool {
	pending := c.focusPending
	c.focusPending = false
	return pending
}

// Value returns the current text.
func (c *composer) Value() string {
	return c.area.Value()
}

// Chars is the rune count shown by the character counter.
func (c *composer) Chars() int {
	return util.RuneLen(c.area.Value())
}
