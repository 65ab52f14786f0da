// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/syntaxchat/internal/ui/styles"
	"github.com/jeranaias/syntaxchat/internal/util"
)

// PickerItem is one selectable row.
type PickerItem struct {
	ID    string
	Label string
	Hint  string
}

// Picker is a modal list used for personas and conversation history.
type Picker struct {
	Title    string
	Items    []PickerItem
	Width    int
	Height   int
	selected int
	theme    *styles.Theme
}

// NewPicker creates a picker over items.
func NewPicker(theme *styles.Theme, title string, items []PickerItem) *Picker {
	return &Picker{Title: title, Items: items, Width: 60, Height: 12, theme: theme}
}

// Select moves the cursor to the item with id, if present.
func (p *Picker) Select(id string) {
	for i, it := range p.Items {
		if it.ID == id {
			p.selected = i
			return
		}
	}
}

// Up moves the cursor up, wrapping.
func (p *Picker) Up() {
	if len(p.Items) == 0 {
		return
	}
	p.selected = (p.selected - 1 + len(p.Items)) % len(p.Items)
}

// Down moves the cursor down, wrapping.
func (p *Picker) Down() {
	if len(p.Items) == 0 {
		return
	}
	p.selected = (p.selected + 1) % len(p.Items)
}

// Selected returns the item under the cursor.
func (p *Picker) Selected() (PickerItem, bool) {
	if len(p.Items) == 0 {
		return PickerItem{}, false
	}
	return p.Items[p.selected], true
}

// View renders the picker box. Only a window of Height rows around the
// cursor is drawn.
func (p *Picker) View() string {
	inner := p.Width - p.theme.Picker.GetHorizontalFrameSize()
	if inner < 10 {
		inner = 10
	}

	lines := []string{p.theme.PickerTitle.Render(p.Title), ""}
	if len(p.Items) == 0 {
		lines = append(lines, p.theme.PickerItem.Render("(nothing here yet)"))
	}

	start, end := p.window()
	for i := start; i < end; i++ {
		it := p.Items[i]
		text := it.Label
		if it.Hint != "" {
			text += "  " + it.Hint
		}
		text = util.PadRight(util.TruncateWidth("  "+text, inner), inner)
		if i == p.selected {
			lines = append(lines, p.theme.PickerSelected.Render("›"+text[1:]))
			continue
		}
		lines = append(lines, p.theme.PickerItem.Render(text))
	}
	lines = append(lines, "", p.theme.PickerItem.Render("↑/↓ move · enter choose · esc close"))
	return p.theme.Picker.Width(p.Width).Render(strings.Join(lines, "\n"))
}

func (p *Picker) window() (int, int) {
	h := p.Height
	if h <= 0 || h >= len(p.Items) {
		return 0, len(p.Items)
	}
	start := p.selected - h/2
	if start < 0 {
		start = 0
	}
	if start+h > len(p.Items) {
		start = len(p.Items) - h
	}
	return start, start + h
}
