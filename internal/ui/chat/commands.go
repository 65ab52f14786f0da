// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/export"
	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/session"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler handles one slash command.
type CommandHandler func(m Model, args []string) (tea.Model, tea.Cmd)

type commandSpec struct {
	handler CommandHandler
	usage   string
}

// commandHandlers maps command names to their handlers. Aliases share a
// handler.
var commandHandlers map[string]commandSpec

func init() {
	commandHandlers = map[string]commandSpec{
		"help":         {handleHelpCommand, "/help  show keys and commands"},
		"quit":         {handleQuitCommand, "/quit  leave"},
		"new":          {handleNewCommand, "/new  start a new chat"},
		"persona":      {handlePersonaCommand, "/persona [id]  choose a persona"},
		"personas":     {handlePersonasCommand, "/personas  list personas"},
		"history":      {handleHistoryCommand, "/history  open a past conversation"},
		"attach":       {handleAttachCommand, "/attach <path>  add a file chip to the next message"},
		"detach":       {handleDetachCommand, "/detach  remove staged files"},
		"copy":         {handleCopyCommand, "/copy  copy the latest reply"},
		"remember":     {handleRememberCommand, "/remember  mark the latest reply"},
		"good":         {handleGoodCommand, "/good  rate the latest reply as a good answer"},
		"bad":          {handleBadCommand, "/bad  rate the latest reply as a bad answer"},
		"persona-good": {handlePersonaGoodCommand, "/persona-good [text]  praise the persona"},
		"export":       {handleExportCommand, "/export [md|json|html]  save the transcript"},
		"logout":       {handleLogoutCommand, "/logout  sign out"},
	}
	commandHandlers["exit"] = commandHandlers["quit"]
	commandHandlers["q"] = commandHandlers["quit"]
	commandHandlers["n"] = commandHandlers["new"]
	commandHandlers["h"] = commandHandlers["help"]
}

// parseCommand splits "/name arg1 arg2". Text that does not start with a
// slash, or starts with "//", is not a command.
func parseCommand(text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || strings.HasPrefix(text, "//") {
		return "", nil, false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// handleCommand runs a slash command and clears the composer. Commands are
// not turns and never pass through the guard.
func (m Model) handleCommand(name string, args []string) (tea.Model, tea.Cmd) {
	cmd, ok := commandHandlers[name]
	if !ok {
		m.notifyError("unknown command /" + name + " (try /help)")
		return m, nil
	}
	m.composer.ClearComposer()
	m.status.Chars = 0
	return cmd.handler(m, args)
}

// CommandUsage lists every command once, sorted.
func CommandUsage() []string {
	seen := make(map[string]bool)
	var lines []string
	for _, cmd := range commandHandlers {
		if seen[cmd.usage] {
			continue
		}
		seen[cmd.usage] = true
		lines = append(lines, cmd.usage)
	}
	sort.Strings(lines)
	return lines
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleHelpCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	m.showHelp = true
	return m, nil
}

func handleQuitCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m, tea.Quit
}

func handleNewCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m.newChat()
}

func handlePersonaCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m.openPersonaPicker()
	}
	m.selectPersona(args[0])
	return m, nil
}

func handlePersonasCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m.openPersonaPicker()
}

func handleHistoryCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m.openHistory()
}

func handleAttachCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.notifyError("usage: /attach <path>")
		return m, nil
	}
	path := strings.Join(args, " ")
	att, err := model.NewAttachment(path)
	if err != nil {
		m.notifyError("can't attach " + path)
		return m, nil
	}
	if err := m.sess.AddAttachment(att); err != nil {
		if errors.Is(err, session.ErrBusy) {
			m.notify("wait for the reply before attaching files")
		} else {
			m.notifyError(err.Error())
		}
		return m, nil
	}
	m.notify("attached " + att.Name)
	return m, nil
}

func handleDetachCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	m.sess.ClearAttachments()
	m.notify("attachments cleared")
	return m, nil
}

func handleCopyCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m.copyLatest()
}

func handleRememberCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m.rememberLatest()
}

func handleGoodCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	return m.sendFeedback(backend.FeedbackGoodAnswer, strings.Join(args, " "))
}

func handleBadCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	return m.sendFeedback(backend.FeedbackBadAnswer, strings.Join(args, " "))
}

func handlePersonaGoodCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	return m.sendFeedback(backend.FeedbackGoodPersonality, strings.Join(args, " "))
}

func handleExportCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	format := ""
	if len(args) > 0 {
		format = args[0]
	}

	opts := export.DefaultOptions()
	if m.exportDir != "" {
		opts.OutputDir = m.exportDir
	}
	if !m.theme.IsDark {
		opts.Theme = "light"
	}
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		m.notifyError(err.Error())
		return m, nil
	}
	if m.log.Len() == 0 {
		m.notify("nothing to export yet")
		return m, nil
	}

	thread, _ := m.sess.ThreadID()
	t := export.FromLog(m.log, thread, m.personaLabel())
	return m, func() tea.Msg {
		path, err := export.ExportToFile(t, exporter, opts)
		return exportMsg{path: path, err: err}
	}
}

func handleLogoutCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m.logout()
}
