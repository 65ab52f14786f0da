// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/syntaxchat/internal/ui/styles"
	"github.com/jeranaias/syntaxchat/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status is the turn state shown on the left of the status bar.
type Status int

const (
	StatusReady Status = iota
	StatusSending
	StatusOffline
)

// String returns the display text for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusSending:
		return "sending"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Icon returns the glyph shown before the status text.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return "●"
	case StatusSending:
		return "◐"
	default:
		return "○"
	}
}

// StatusBar shows turn state, a transient notice, the character counter and
// key hints.
type StatusBar struct {
	Status      Status
	Notice      string
	NoticeError bool
	Chars       int
	MaxChars    int
	Width       int
	theme       *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetTheme swaps the theme after a config reload.
func (s *StatusBar) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// SetNotice shows a one-line message until the next SetNotice.
func (s *StatusBar) SetNotice(text string, isError bool) {
	s.Notice = text
	s.NoticeError = isError
}

// View renders the bar.
func (s *StatusBar) View() string {
	left := s.theme.StatusKey.Render(s.Status.Icon()) + " " + s.Status.String()
	if s.Notice != "" {
		style := s.theme.Notice
		if s.NoticeError {
			style = s.theme.NoticeError
		}
		left += "  " + style.Render(s.Notice)
	}

	right := s.renderCounter()
	if s.Width >= 70 {
		right = s.renderShortcuts() + "  " + right
	}

	inner := s.Width - s.theme.StatusBar.GetHorizontalFrameSize()
	room := inner - lipgloss.Width(right) - 1
	if room < 0 {
		room = 0
	}
	if lipgloss.Width(left) > room {
		left = util.TruncateWidth(s.Status.String()+"  "+s.Notice, room)
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(s.Width).Render(left + spaces(gap) + right)
}

// renderCounter shows n/max, coloured as the limit approaches.
func (s *StatusBar) renderCounter() string {
	if s.MaxChars <= 0 {
		return s.theme.CharCount.Render(fmt.Sprintf("%d", s.Chars))
	}
	text := fmt.Sprintf("%d/%d", s.Chars, s.MaxChars)
	switch {
	case s.Chars >= s.MaxChars:
		return s.theme.CharCountDanger.Render(text)
	case s.Chars*10 >= s.MaxChars*9:
		return s.theme.CharCountWarning.Render(text)
	default:
		return s.theme.CharCount.Render(text)
	}
}

func (s *StatusBar) renderShortcuts() string {
	key := s.theme.StatusKey.Render
	return key("enter") + " send " + key("ctrl+n") + " new " + key("ctrl+o") + " history"
}
