// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/msglog"
)

func sampleTranscript() *Transcript {
	l := msglog.New()
	l.AppendUser("What is <b>Go</b>?\nsecond line", []model.Attachment{
		{Name: "notes.txt", MIMEType: "text/plain", Size: 10},
	})
	l.ShowTyping()
	l.AppendAssistant("m1", "Go is **fast** & `simple`", model.Meta{
		Persona: "Sage", LatencyMs: 412, KnowledgeSources: 2,
	})
	l.AppendError("The server had a problem.")
	return FromLog(l, "t-1", "Sage")
}

func TestFromLog(t *testing.T) {
	tr := sampleTranscript()
	assert.Equal(t, "What is <b>Go</b>?", tr.Title)
	assert.Equal(t, "t-1", tr.ThreadID)
	require.Len(t, tr.Messages, 3)
	assert.False(t, tr.CreatedAt().IsZero())
}

func TestFromLogEmpty(t *testing.T) {
	tr := FromLog(msglog.New(), "", "")
	assert.Equal(t, "Conversation", tr.Title)
	assert.Empty(t, tr.Messages)

	_, err := NewMarkdownExporter(nil).Export(tr)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestFromHistory(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	tr := FromHistory("t-9", "", []backend.HistoryMessage{
		{ID: "1", Role: model.RoleUser, Content: "hello", CreatedAt: at},
		{ID: "2", Role: model.RoleAssistant, Content: "hi", CreatedAt: at.Add(time.Second)},
	})
	assert.Equal(t, "hello", tr.Title)
	assert.Equal(t, at, tr.CreatedAt())
	assert.Equal(t, "2", tr.Messages[1].ID)

	titled := FromHistory("t-9", "Greetings", nil)
	assert.Equal(t, "Greetings", titled.Title)
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.Contains(t, md, "generator: syntaxchat")
	assert.Contains(t, md, "thread_id: t-1")
	assert.Contains(t, md, "### You")
	assert.Contains(t, md, "### Sage")
	assert.Contains(t, md, "(error)")
	assert.Contains(t, md, "Go is **fast**")
	assert.Contains(t, md, "attachment: `notes.txt`")
	assert.Contains(t, md, "412ms | 2 knowledge sources")
}

func TestMarkdownExportWithoutMetadata(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(sampleTranscript())
	require.NoError(t, err)
	md := string(out)
	assert.NotContains(t, md, "generator:")
	assert.NotContains(t, md, "412ms")
	assert.NotContains(t, md, "<sub>")
}

func TestJSONExport(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	var decoded struct {
		Title    string `json:"title"`
		ThreadID string `json:"thread_id"`
		Messages []struct {
			ID      string `json:"id"`
			Role    string `json:"role"`
			IsError bool   `json:"is_error"`
			Meta    *struct {
				LatencyMs int64 `json:"latency_ms"`
			} `json:"meta"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "t-1", decoded.ThreadID)
	require.Len(t, decoded.Messages, 3)
	assert.Equal(t, "m1", decoded.Messages[1].ID)
	require.NotNil(t, decoded.Messages[1].Meta)
	assert.Equal(t, int64(412), decoded.Messages[1].Meta.LatencyMs)
	assert.True(t, decoded.Messages[2].IsError)

	var header map[string]any
	require.NoError(t, json.Unmarshal(out, &header))
	assert.Equal(t, "syntaxchat-transcript", header["format"])
	assert.Equal(t, float64(3), header["message_count"])
}

func TestJSONExport_WithoutMetadata(t *testing.T) {
	src := sampleTranscript()
	opts := DefaultOptions()
	opts.IncludeMetadata = false

	out, err := NewJSONExporter(opts).Export(src)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "latency_ms")
	require.NotNil(t, src.Messages[1].Meta, "the source transcript is not modified")
}

func TestHTMLExportEscapesBeforeFormatting(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "What is &lt;b&gt;Go&lt;/b&gt;?<br>second line")
	assert.NotContains(t, page, "<b>Go</b>")
	assert.Contains(t, page, "Go is <strong>fast</strong> &amp; <code>simple</code>")
	assert.Contains(t, page, "error-message")
	assert.Contains(t, page, "notes.txt")
	assert.Contains(t, page, "dark-theme")
	assert.Contains(t, page, "412ms · 2 knowledge sources")
}

func TestHTMLLightTheme(t *testing.T) {
	out, err := NewHTMLExporter(&Options{Theme: "light"}).Export(sampleTranscript())
	require.NoError(t, err)
	assert.Contains(t, string(out), "light-theme")
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"", ".md"},
		{"md", ".md"},
		{"markdown", ".md"},
		{"JSON", ".json"},
		{".html", ".html"},
	}
	for _, tt := range tests {
		e, err := ForFormat(tt.format, nil)
		require.NoError(t, err, tt.format)
		assert.Equal(t, tt.ext, e.FileExtension())
	}

	_, err := ForFormat("pdf", nil)
	assert.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(dir, "out")

	path, err := ExportToFile(sampleTranscript(), NewMarkdownExporter(opts), opts)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".md"))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "conversation_What_is_-b-Go--b-"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# What is")
}

func TestExportToFileEmpty(t *testing.T) {
	_, err := ExportToFile(&Transcript{}, NewJSONExporter(nil), &Options{OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b_c", sanitizeFilename("a/b c"))
	assert.Equal(t, "conversation", sanitizeFilename(""))
	assert.Equal(t, 50, len([]rune(sanitizeFilename(strings.Repeat("x", 80)))))
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain", escapeYAML("plain"))
	assert.Equal(t, `"a: b"`, escapeYAML("a: b"))
	assert.Equal(t, `"line\nbreak"`, escapeYAML("line\nbreak"))
}
