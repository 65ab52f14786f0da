// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/markup"
	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/msglog"
	"github.com/jeranaias/syntaxchat/internal/ui/styles"
	"github.com/jeranaias/syntaxchat/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE
// =============================================================================

const (
	userAvatar      = "●"
	assistantAvatar = "◆"
	errorAvatar     = "▲"

	// minBubbleWidth keeps narrow terminals readable.
	minBubbleWidth = 20
)

// MessageBubble renders one log entry.
type MessageBubble struct {
	Message       *model.Message
	Width         int
	ShowTimestamp bool
	ShowMetadata  bool

	// ShowActions enables the action row. Only the latest assistant bubble
	// has live shortcuts.
	ShowActions bool
	Marks       msglog.Marks

	theme *styles.Theme
}

// NewMessageBubble creates a bubble for msg with default options.
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:      msg,
		Width:        80,
		ShowMetadata: true,
		theme:        theme,
	}
}

// View renders the bubble.
func (b *MessageBubble) View() string {
	if b.Message == nil {
		return ""
	}
	switch {
	case b.Message.Role == model.RoleUser:
		return b.renderUser()
	case b.Message.IsError:
		return b.renderError()
	default:
		return b.renderAssistant()
	}
}

func (b *MessageBubble) contentWidth() int {
	w := b.Width - 6
	if w < minBubbleWidth {
		w = minBubbleWidth
	}
	return w
}

func (b *MessageBubble) header(avatar string, avatarColor lipgloss.TerminalColor) string {
	parts := []string{
		lipgloss.NewStyle().Foreground(avatarColor).Render(avatar),
		b.theme.RoleLabel.Render(b.Message.Role.DisplayName()),
	}
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		parts = append(parts, b.theme.Timestamp.Render(b.Message.Timestamp.Format("3:04 PM")))
	}
	return strings.Join(parts, " ")
}

func (b *MessageBubble) renderUser() string {
	width := b.contentWidth()
	var body []string
	if b.Message.Content != "" {
		body = append(body, wordWrap(b.Message.Content, width))
	}
	if chips := Chips(b.theme, b.Message.Attachments, width); chips != "" {
		body = append(body, chips)
	}

	bubble := b.theme.UserBubble.Width(width + 2).Render(strings.Join(body, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, b.header(userAvatar, styles.Cyan), bubble)
}

func (b *MessageBubble) renderAssistant() string {
	width := b.contentWidth()
	text := RenderMarkup(b.theme, b.Message.Content)
	bubble := b.theme.AssistantBubble.Width(width + 2).Render(text)

	lines := []string{b.header(assistantAvatar, styles.Purple), bubble}
	if b.ShowActions {
		lines = append(lines, ActionRow(b.theme, b.Marks))
	}
	if b.ShowMetadata && b.Message.Meta != nil {
		if meta := MetadataLine(*b.Message.Meta); meta != "" {
			lines = append(lines, b.theme.Metadata.Render(meta))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderError draws text only: no actions, no metadata.
func (b *MessageBubble) renderError() string {
	width := b.contentWidth()
	bubble := b.theme.ErrorBubble.Width(width + 2).Render(wordWrap(b.Message.Content, width))
	return lipgloss.JoinVertical(lipgloss.Left, b.header(errorAvatar, styles.Rose), bubble)
}

// =============================================================================
// BUBBLE PARTS
// =============================================================================

// RenderMarkup applies markdown-lite spans with the theme's inline styles.
func RenderMarkup(theme *styles.Theme, text string) string {
	var sb strings.Builder
	for _, span := range markup.Parse(text) {
		switch span.Kind {
		case markup.Strong:
			sb.WriteString(theme.Strong.Render(span.Text))
		case markup.Em:
			sb.WriteString(theme.Em.Render(span.Text))
		case markup.Code:
			sb.WriteString(theme.Code.Render(span.Text))
		case markup.Break:
			sb.WriteString("\n")
		default:
			sb.WriteString(span.Text)
		}
	}
	return sb.String()
}

// Chips renders attachment chips, wrapping onto new lines within width.
func Chips(theme *styles.Theme, atts []model.Attachment, width int) string {
	if len(atts) == 0 {
		return ""
	}
	var lines []string
	var line []string
	lineWidth := 0
	for _, a := range atts {
		chip := theme.Chip.Render(ChipLabel(a, width-2))
		w := lipgloss.Width(chip)
		if len(line) > 0 && lineWidth+1+w > width {
			lines = append(lines, strings.Join(line, " "))
			line, lineWidth = nil, 0
		}
		if len(line) > 0 {
			lineWidth++
		}
		line = append(line, chip)
		lineWidth += w
	}
	lines = append(lines, strings.Join(line, " "))
	return strings.Join(lines, "\n")
}

// ChipLabel is the plain chip text: icon, name and size.
func ChipLabel(a model.Attachment, maxWidth int) string {
	label := fmt.Sprintf("%s %s (%s)", a.Icon(), a.Name, a.HumanSize())
	if maxWidth > 0 {
		label = util.TruncateWidth(label, maxWidth)
	}
	return label
}

// action is one entry of the assistant action row.
type action struct {
	key   string
	label string
	done  func(msglog.Marks) bool
}

var actions = []action{
	{key: "alt+c", label: "copy"},
	{key: "alt+r", label: "remember", done: func(m msglog.Marks) bool { return m.Remembered }},
	{key: "alt+u", label: "👍", done: hasFeedback(backend.FeedbackGoodAnswer)},
	{key: "alt+d", label: "👎", done: hasFeedback(backend.FeedbackBadAnswer)},
	{key: "alt+g", label: "persona ★", done: hasFeedback(backend.FeedbackGoodPersonality)},
}

func hasFeedback(t backend.FeedbackType) func(msglog.Marks) bool {
	return func(m msglog.Marks) bool {
		for _, f := range m.Feedback {
			if f == string(t) {
				return true
			}
		}
		return false
	}
}

// ActionRow renders copy, remember, thumbs-up, thumbs-down and persona-good.
// Actions already taken are drawn with a check mark.
func ActionRow(theme *styles.Theme, marks msglog.Marks) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		if a.done != nil && a.done(marks) {
			parts = append(parts, theme.ActionDone.Render("✓ "+a.label))
			continue
		}
		parts = append(parts, theme.ActionRow.Render(a.key+" "+a.label))
	}
	return strings.Join(parts, theme.ActionRow.Render(" · "))
}

// MetadataLine returns "persona · 412ms · 3 sources". The source count is
// omitted when zero.
func MetadataLine(meta model.Meta) string {
	var parts []string
	if meta.Persona != "" {
		parts = append(parts, meta.Persona)
	}
	parts = append(parts, fmt.Sprintf("%dms", meta.LatencyMs))
	switch {
	case meta.KnowledgeSources == 1:
		parts = append(parts, "1 source")
	case meta.KnowledgeSources > 1:
		parts = append(parts, fmt.Sprintf("%d sources", meta.KnowledgeSources))
	}
	if meta.ContextTag != "" {
		parts = append(parts, meta.ContextTag)
	}
	return strings.Join(parts, " · ")
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList renders the whole log for the viewport.
type MessageList struct {
	Width         int
	ShowTimestamp bool
	ShowMetadata  bool
	theme         *styles.Theme
}

// NewMessageList creates a list renderer.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{Width: 80, ShowMetadata: true, theme: theme}
}

// SetTheme swaps the theme after a config reload.
func (ml *MessageList) SetTheme(theme *styles.Theme) {
	ml.theme = theme
}

// View renders every entry, the welcome placeholder when the log is fresh,
// and the typing indicator line when one is showing.
func (ml *MessageList) View(l *msglog.Log, typing string) string {
	if l.Welcome() && l.Len() == 0 {
		w := NewWelcome(ml.theme)
		w.Width = ml.Width
		return w.View()
	}

	entries := l.Entries()
	latest := ""
	if m, ok := l.LatestAssistant(); ok {
		latest = m.ID
	}

	blocks := make([]string, 0, len(entries)+1)
	for _, msg := range entries {
		b := NewMessageBubble(msg, ml.theme)
		b.Width = ml.Width
		b.ShowTimestamp = ml.ShowTimestamp
		b.ShowMetadata = ml.ShowMetadata
		if msg.HasActions() {
			b.ShowActions = msg.ID == latest
			b.Marks = l.MarksFor(msg.ID)
		}
		blocks = append(blocks, b.View())
	}
	if _, ok := l.Typing(); ok && typing != "" {
		blocks = append(blocks, typing)
	}
	return strings.Join(blocks, "\n\n")
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// wordWrap wraps text to fit within width display cells. Existing line
// breaks are kept.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	for lineIdx, line := range lines {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLine := words[0]
		for _, word := range words[1:] {
			if util.StringWidth(currentLine)+1+util.StringWidth(word) <= width {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}
		result.WriteString(currentLine)
	}

	return result.String()
}
