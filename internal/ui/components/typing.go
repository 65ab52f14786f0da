// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/syntaxchat/internal/ui/styles"
)

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// TypingIndicator animates the "thinking" line shown while a turn is in
// flight. Whether it is shown is decided by the message log; this only
// draws it.
type TypingIndicator struct {
	spinner spinner.Model
	label   string
	theme   *styles.Theme
}

// NewTypingIndicator creates an indicator with an ASCII-safe frame set.
func NewTypingIndicator(theme *styles.Theme) TypingIndicator {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"·  ", "·· ", "···", " ··", "  ·", "   "},
		FPS:    time.Second / 8,
	}
	return TypingIndicator{spinner: s, label: "thinking", theme: theme}
}

// SetLabel changes the text after the animation, e.g. the persona name.
func (t *TypingIndicator) SetLabel(label string) {
	if label != "" {
		t.label = label
	}
}

// SetTheme swaps the theme after a config reload.
func (t *TypingIndicator) SetTheme(theme *styles.Theme) {
	t.theme = theme
}

// Tick starts the animation.
func (t TypingIndicator) Tick() tea.Cmd {
	return t.spinner.Tick
}

// Update advances the animation.
func (t TypingIndicator) Update(msg tea.Msg) (TypingIndicator, tea.Cmd) {
	var cmd tea.Cmd
	t.spinner, cmd = t.spinner.Update(msg)
	return t, cmd
}

// View renders the line. elapsed is shown once it reaches a second.
func (t TypingIndicator) View(elapsed time.Duration) string {
	text := fmt.Sprintf("%s %s", t.label, t.spinner.View())
	if elapsed >= time.Second {
		text += fmt.Sprintf(" (%s)", formatElapsed(elapsed))
	}
	return t.theme.Typing.Render(assistantAvatar + " " + text)
}

// formatElapsed formats d as "4s" or "1m05s".
func formatElapsed(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm%02ds", secs/60, secs%60)
}
