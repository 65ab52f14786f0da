// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/syntaxchat/internal/markup"
	"github.com/jeranaias/syntaxchat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone page with embedded CSS.
// Bubble text is escaped first; only the markdown-lite tags are emitted.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(t.Title))
	sb.WriteString("    <meta name=\"generator\" content=\"syntaxchat\">\n")
	fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", t.CreatedAt().Format(time.RFC3339))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(t))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range t.Messages {
		sb.WriteString(e.renderMessage(msg, t.Persona))
	}
	sb.WriteString("        </main>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) renderHeader(t *Transcript) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(t.Title))
	sb.WriteString("            <div class=\"metadata\">\n")
	if t.Persona != "" {
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Persona:</strong> %s</span>\n", html.EscapeString(t.Persona))
	}
	if t.ThreadID != "" {
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Thread:</strong> %s</span>\n", html.EscapeString(t.ThreadID))
	}
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(t.CreatedAt()))
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(t.Messages))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg *model.Message, persona string) string {
	var sb strings.Builder

	class := string(msg.Role) + "-message"
	if msg.IsError {
		class += " error-message"
	}
	fmt.Fprintf(&sb, "            <div class=\"message %s\" id=\"%s\">\n", class, html.EscapeString(msg.ID))

	sb.WriteString("                <div class=\"message-header\">\n")
	fmt.Fprintf(&sb, "                    <span class=\"role-label\">%s</span>\n", html.EscapeString(roleLabel(msg, persona)))
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp))
	}
	sb.WriteString("                </div>\n")

	fmt.Fprintf(&sb, "                <div class=\"message-content\">%s</div>\n", markup.HTML(msg.Content))

	if len(msg.Attachments) > 0 {
		sb.WriteString("                <div class=\"chips\">\n")
		for _, a := range msg.Attachments {
			fmt.Fprintf(&sb, "                    <span class=\"chip\" title=\"%s\">%s %s</span>\n",
				html.EscapeString(a.MIMEType), a.Icon(), html.EscapeString(a.Name))
		}
		sb.WriteString("                </div>\n")
	}

	if e.options.IncludeMetadata {
		if parts := metaParts(msg); len(parts) > 0 {
			fmt.Fprintf(&sb, "                <div class=\"message-stats\">%s</div>\n", html.EscapeString(strings.Join(parts, " · ")))
		}
	}

	sb.WriteString("            </div>\n")
	return sb.String()
}

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --user-bg: #1f2335;
            --assistant-bg: #2a2e45;
            --code-bg: #16161e;
            --accent: #7aa2f7;
            --error: #f7768e;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --user-bg: #eef4ff;
            --assistant-bg: #ffffff;
            --code-bg: #f6f8fa;
            --accent: #0366d6;
            --error: #d73a49;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 24px 32px; border-bottom: 1px solid var(--text-muted); }
        .header h1 { font-size: 24px; margin-bottom: 8px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-muted); }
        .conversation { padding: 24px 32px; display: flex; flex-direction: column; gap: 16px; }
        .message { padding: 12px 16px; border-radius: 10px; }
        .user-message { background: var(--user-bg); border-left: 3px solid var(--accent); }
        .assistant-message { background: var(--assistant-bg); }
        .error-message { border-left: 3px solid var(--error); color: var(--error); }
        .message-header { display: flex; gap: 12px; font-size: 13px; margin-bottom: 6px; }
        .role-label { font-weight: 600; }
        .timestamp, .message-stats { color: var(--text-muted); font-size: 12px; }
        .message-content code { font-family: var(--font-mono); background: var(--code-bg); padding: 1px 4px; border-radius: 4px; }
        .chips { display: flex; flex-wrap: wrap; gap: 6px; margin-top: 8px; }
        .chip { font-size: 12px; padding: 2px 8px; border-radius: 999px; background: var(--code-bg); }
        .message-stats { margin-top: 6px; }
    </style>
`
