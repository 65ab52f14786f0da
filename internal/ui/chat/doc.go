// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view.

The Model is a Bubble Tea model. Its Update method is the only place that
mutates the session, the message log and the composer, so every state
transition of a turn happens on one goroutine. The one suspension point of a
turn, the HTTP call, runs as a tea.Cmd and reports back with turnDoneMsg.

# Key Components

## Model (model.go)

Owns the composer, the viewport over the message log, the header and the
status bar. Enter submits through the turn orchestrator; text starting with
"/" is a local command.

## Composer (composer.go)

A textarea that implements the orchestrator's Surface: it can be disabled,
cleared and asked to refocus. Refocus is delayed by chat.focus_delay_ms.

## Commands (commands.go)

Slash commands: /new, /persona, /personas, /history, /attach, /detach,
/copy, /remember, /good, /bad, /persona-good, /export, /logout, /help and
/quit.

## Key Bindings (keys.go)

	Enter        send
	Alt+Enter    newline (Ctrl+J also works)
	Ctrl+N       new chat
	Ctrl+P       choose persona
	Ctrl+O       open a past conversation
	Alt+C/R      copy / remember the latest reply
	Alt+U/D/G    good answer / bad answer / good persona
	PgUp/PgDn    scroll
	Ctrl+C       quit
*/
package chat
