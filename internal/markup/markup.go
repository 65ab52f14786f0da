// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markup implements the inline formatting used in assistant bubbles:
// **strong**, *emphasis*, `code` and line breaks. Nothing nests, and a span
// with no text between its markers stays literal.
package markup

import (
	"html"
	"strings"
)

// Kind is the formatting of a span.
type Kind int

const (
	Text Kind = iota
	Strong
	Em
	Code
	Break
)

// Span is one run of uniformly formatted text. Break spans have no text.
type Span struct {
	Kind Kind
	Text string
}

// delimiters in the order they are tried at each position.
var delimiters = []struct {
	open string
	kind Kind
}{
	{"**", Strong},
	{"*", Em},
	{"`", Code},
}

// Parse splits text into spans, scanning left to right. A delimiter only
// opens a span when a matching closer follows on the same line with at
// least one character in between; otherwise it is literal text.
func Parse(text string) []Span {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var spans []Span
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			spans = append(spans, Span{Kind: Text, Text: plain.String()})
			plain.Reset()
		}
	}

	for i := 0; i < len(text); {
		if text[i] == '\n' {
			flush()
			spans = append(spans, Span{Kind: Break})
			i++
			continue
		}

		matched := false
		for _, d := range delimiters {
			if !strings.HasPrefix(text[i:], d.open) {
				continue
			}
			start := i + len(d.open)
			end := closing(text, start, d.open)
			if end < 0 {
				continue
			}
			flush()
			spans = append(spans, Span{Kind: d.kind, Text: text[start:end]})
			i = end + len(d.open)
			matched = true
			break
		}
		if matched {
			continue
		}

		plain.WriteByte(text[i])
		i++
	}
	flush()
	return spans
}

// closing returns the index of the closing delimiter for a span whose
// content starts at start, or -1.
func closing(text string, start int, delim string) int {
	line := text[start:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	idx := strings.Index(line, delim)
	if idx <= 0 {
		return -1
	}
	return start + idx
}

// Plain returns text with the formatting markers removed.
func Plain(text string) string {
	var b strings.Builder
	for _, s := range Parse(text) {
		if s.Kind == Break {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// HTML renders text as an HTML fragment. Text is escaped before the
// formatting tags are applied, so markup in the message is shown literally.
func HTML(text string) string {
	var b strings.Builder
	for _, s := range Parse(text) {
		esc := html.EscapeString(s.Text)
		switch s.Kind {
		case Strong:
			b.WriteString("<strong>" + esc + "</strong>")
		case Em:
			b.WriteString("<em>" + esc + "</em>")
		case Code:
			b.WriteString("<code>" + esc + "</code>")
		case Break:
			b.WriteString("<br>")
		default:
			b.WriteString(esc)
		}
	}
	return b.String()
}
