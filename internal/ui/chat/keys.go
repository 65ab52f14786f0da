// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat view.
type KeyMap struct {
	Submit  key.Binding
	Newline key.Binding

	NewChat key.Binding
	Persona key.Binding
	History key.Binding

	Copy        key.Binding
	Remember    key.Binding
	GoodAnswer  key.Binding
	BadAnswer   key.Binding
	GoodPersona key.Binding

	PageUp   key.Binding
	PageDown key.Binding

	Up    key.Binding
	Down  key.Binding
	Close key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "newline"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		Persona: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "persona"),
		),
		History: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "history"),
		),
		Copy: key.NewBinding(
			key.WithKeys("alt+c"),
			key.WithHelp("alt+c", "copy reply"),
		),
		Remember: key.NewBinding(
			key.WithKeys("alt+r"),
			key.WithHelp("alt+r", "remember reply"),
		),
		GoodAnswer: key.NewBinding(
			key.WithKeys("alt+u"),
			key.WithHelp("alt+u", "good answer"),
		),
		BadAnswer: key.NewBinding(
			key.WithKeys("alt+d"),
			key.WithHelp("alt+d", "bad answer"),
		),
		GoodPersona: key.NewBinding(
			key.WithKeys("alt+g"),
			key.WithHelp("alt+g", "good persona"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "next"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// HelpLines returns "key  description" rows for the help overlay.
func (k KeyMap) HelpLines() []string {
	bindings := []key.Binding{
		k.Submit, k.Newline, k.NewChat, k.Persona, k.History,
		k.Copy, k.Remember, k.GoodAnswer, k.BadAnswer, k.GoodPersona,
		k.PageUp, k.PageDown, k.Help, k.Quit,
	}
	lines := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, padKey(h.Key)+h.Desc)
	}
	return lines
}

func padKey(k string) string {
	const width = 12
	for len(k) < width {
		k += " "
	}
	return k
}
