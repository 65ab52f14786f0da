// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Widths used when stdout is not a terminal or is very narrow.
const (
	fallbackWidth = 80
	narrowest     = 40
)

// isTerminalWriter reports whether w is a terminal. Buffers are not.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether stdin is a terminal, i.e. whether we can prompt.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return isTerminalWriter(os.Stdout)
}

// TerminalWidth is the stdout width used to wrap rendered replies.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	switch {
	case err != nil || w <= 0:
		return fallbackWidth
	case w < narrowest:
		return narrowest
	default:
		return w
	}
}

var colorMode struct {
	once    sync.Once
	enabled bool
}

// ColorsEnabled decides once per process: NO_COLOR wins, FORCE_COLOR comes
// next, otherwise colour follows whether stdout is a terminal.
func ColorsEnabled() bool {
	colorMode.once.Do(func() {
		switch {
		case os.Getenv("NO_COLOR") != "":
			colorMode.enabled = false
		case os.Getenv("FORCE_COLOR") != "":
			colorMode.enabled = true
		default:
			colorMode.enabled = IsStdoutTTY()
		}
	})
	return colorMode.enabled
}

func colorProfile() termenv.Profile {
	if ColorsEnabled() {
		return termenv.ColorProfile()
	}
	return termenv.Ascii
}
