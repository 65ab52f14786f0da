// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
)

// =============================================================================
// MARKDOWN OUTPUT
// =============================================================================

// renderMarkdown renders a reply for a terminal. It returns content unchanged
// when the renderer cannot be built or fails.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Debug().Err(err).Msg("markdown renderer unavailable")
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

// printReply writes a reply, rendered when w is a terminal and raw otherwise
// so piped output stays clean.
func printReply(w io.Writer, content string) {
	if isTerminalWriter(w) {
		fmt.Fprint(w, renderMarkdown(content, TerminalWidth()-2))
		return
	}
	fmt.Fprint(w, content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(w)
	}
}
