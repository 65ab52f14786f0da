// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func init() {
	lipgloss.SetColorProfile(colorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle heads a listing.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// LabelStyle is a left column label.
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// ValueStyle is ordinary output.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// DimStyle is for metadata and hints.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// UserPromptStyle is the line-mode prompt.
	UserPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")).
			Bold(true)

	// AssistantLabelStyle prefixes replies in line mode.
	AssistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("51")).
				Bold(true)
)

// RenderSeparator draws a rule of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = fallbackWidth
	}
	return DimStyle.Render(strings.Repeat("─", width))
}
