// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/syntaxchat/internal/ui/styles"
)

// Welcome is the placeholder shown until the first bubble of a chat.
type Welcome struct {
	Width   int
	Persona string
	theme   *styles.Theme
}

// NewWelcome creates the placeholder.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{Width: 80, theme: theme}
}

// View renders the placeholder centred in Width.
func (w Welcome) View() string {
	title := w.theme.WelcomeTitle.Render("syntaxchat")

	greeting := "Ask anything to start a conversation."
	if w.Persona != "" {
		greeting = "Ask " + w.Persona + " anything to start a conversation."
	}

	lines := []string{
		title,
		"",
		w.theme.WelcomeText.Render(greeting),
		"",
		w.theme.WelcomeText.Render(strings.Join([]string{
			"enter send",
			"alt+enter newline",
			"ctrl+n new chat",
			"ctrl+p persona",
			"ctrl+o history",
			"/help commands",
		}, " · ")),
	}
	block := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if w.Width <= 0 {
		return block
	}
	return lipgloss.PlaceHorizontal(w.Width, lipgloss.Center, block)
}
