// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/syntaxchat/internal/ui/components"
)

// View renders header, log, composer and status bar. Overlays replace the
// log area while open.
func (m Model) View() string {
	middle := m.viewport.View()
	switch {
	case m.showHelp:
		middle = m.renderOverlay(m.renderHelp())
	case m.picker != nil:
		middle = m.renderOverlay(m.picker.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		middle,
		m.renderInput(),
		m.status.View(),
	)
}

// renderOverlay centres block in the viewport area.
func (m Model) renderOverlay(block string) string {
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, block)
}

// renderInput draws the composer, dimmed while a turn is in flight, with
// staged attachment chips above it.
func (m Model) renderInput() string {
	var parts []string
	if atts := m.sess.Attachments(); len(atts) > 0 {
		parts = append(parts, components.Chips(m.theme, atts, m.width))
	}
	parts = append(parts, m.composer.area.View())

	style := m.theme.InputContainer
	if !m.composer.enabled {
		style = m.theme.InputDisabled
	}
	return style.Width(m.width).Render(strings.Join(parts, "\n"))
}

func (m Model) renderHelp() string {
	lines := []string{m.theme.PickerTitle.Render("Keys"), ""}
	lines = append(lines, m.keyMap.HelpLines()...)
	lines = append(lines, "", m.theme.PickerTitle.Render("Commands"), "")
	lines = append(lines, CommandUsage()...)
	lines = append(lines, "", "press any key to close")
	return m.theme.Picker.Render(strings.Join(lines, "\n"))
}
