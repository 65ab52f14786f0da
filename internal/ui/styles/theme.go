// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components of the chat UI.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Header and status bar
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderInfo  lipgloss.Style
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style

	// Bubbles
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorBubble     lipgloss.Style
	RoleLabel       lipgloss.Style
	Timestamp       lipgloss.Style
	Metadata        lipgloss.Style
	ActionRow       lipgloss.Style
	ActionDone      lipgloss.Style
	Chip            lipgloss.Style

	// Inline formatting
	Strong lipgloss.Style
	Em     lipgloss.Style
	Code   lipgloss.Style

	// Typing indicator and welcome placeholder
	Typing       lipgloss.Style
	WelcomeTitle lipgloss.Style
	WelcomeText  lipgloss.Style

	// Composer
	InputContainer   lipgloss.Style
	InputDisabled    lipgloss.Style
	CharCount        lipgloss.Style
	CharCountWarning lipgloss.Style
	CharCountDanger  lipgloss.Style

	// Overlays and notices
	Picker         lipgloss.Style
	PickerTitle    lipgloss.Style
	PickerItem     lipgloss.Style
	PickerSelected lipgloss.Style
	Notice         lipgloss.Style
	NoticeError    lipgloss.Style
}

// NewTheme builds the theme for mode "dark", "light" or "auto". Auto asks
// the terminal for its background.
func NewTheme(mode string) *Theme {
	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.HeaderInfo = lipgloss.NewStyle().Foreground(TextSecondary)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)

	t.ErrorBubble = lipgloss.NewStyle().
		Foreground(ErrorBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)

	t.RoleLabel = lipgloss.NewStyle().Bold(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.Metadata = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.ActionRow = lipgloss.NewStyle().Foreground(TextSecondary)
	t.ActionDone = lipgloss.NewStyle().Foreground(Emerald)
	t.Chip = lipgloss.NewStyle().
		Foreground(Cyan).
		Background(Overlay).
		Padding(0, 1)

	t.Strong = lipgloss.NewStyle().Bold(true)
	t.Em = lipgloss.NewStyle().Italic(true)
	t.Code = lipgloss.NewStyle().Foreground(CodeFg).Background(CodeBg)

	t.Typing = lipgloss.NewStyle().Foreground(Purple).Italic(true)
	t.WelcomeTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.WelcomeText = lipgloss.NewStyle().Foreground(TextSecondary)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)
	t.InputDisabled = t.InputContainer.Foreground(TextMuted).Faint(true)
	t.CharCount = lipgloss.NewStyle().Foreground(TextMuted)
	t.CharCountWarning = lipgloss.NewStyle().Foreground(Amber)
	t.CharCountDanger = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	t.Picker = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.PickerTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.PickerItem = lipgloss.NewStyle().Foreground(TextPrimary)
	t.PickerSelected = lipgloss.NewStyle().Foreground(TextPrimary).Background(SelectionBg).Bold(true)
	t.Notice = lipgloss.NewStyle().Foreground(Emerald)
	t.NoticeError = lipgloss.NewStyle().Foreground(Rose)
}
