// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/syntaxchat/internal/ui/styles"
	"github.com/jeranaias/syntaxchat/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: brand on the left, persona and thread on the
// right.
type Header struct {
	Title   string
	Persona string
	Thread  string
	Width   int
	theme   *styles.Theme
}

// NewHeader creates a header with the default title.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Title: "syntaxchat", Width: 80, theme: theme}
}

// SetTheme swaps the theme after a config reload.
func (h *Header) SetTheme(theme *styles.Theme) {
	h.theme = theme
}

// View renders the header across Width.
func (h *Header) View() string {
	brand := h.theme.HeaderBrand.Render(h.Title)

	info := "new conversation"
	if h.Thread != "" {
		info = "thread " + util.TruncateWidth(h.Thread, 12)
	}
	if h.Persona != "" {
		info = h.Persona + " · " + info
	}

	inner := h.Width - h.theme.Header.GetHorizontalFrameSize()
	room := inner - lipgloss.Width(brand) - 2
	if room < 0 {
		room = 0
	}
	right := h.theme.HeaderInfo.Render(util.TruncateWidth(info, room))

	gap := inner - lipgloss.Width(brand) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return h.theme.Header.Width(h.Width).Render(brand + spaces(gap) + right)
}

func spaces(n int) string {
	return util.PadRight("", n)
}
