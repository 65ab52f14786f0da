// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/config"
	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/msglog"
	"github.com/jeranaias/syntaxchat/internal/turn"
	"github.com/jeranaias/syntaxchat/internal/ui/components"
)

// newChatCommand runs a conversation. Without --plain it is the same as
// running syntaxchat with no subcommand.
func newChatCommand(a *app) *cobra.Command {
	var plain bool
	var threadID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start a conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !plain {
				return a.runTUI(cmd)
			}
			return a.runPlainChat(cmd, threadID)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "line mode instead of the full-screen view")
	cmd.Flags().StringVar(&threadID, "thread", "", "continue an existing conversation (line mode)")
	return cmd
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader is the part of liner the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// historyLiner wraps liner with a history file in the config directory.
type historyLiner struct {
	*liner.State
	path string
}

func newHistoryLiner() *historyLiner {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	h := &historyLiner{State: line, path: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(h.path); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return h
}

// Close saves history with 0600 permissions and restores the terminal.
func (h *historyLiner) Close() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o700); err == nil {
		if f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = h.WriteHistory(f)
			f.Close()
		}
	}
	return h.State.Close()
}

// =============================================================================
// LINE-MODE SESSION
// =============================================================================

func (a *app) runPlainChat(cmd *cobra.Command, threadID string) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	sess := a.newSession(ctx, client)
	l := msglog.New()
	orch := turn.New(sess, l, client, turn.NopSurface{},
		turn.WithIncludeKnowledge(a.cfg.Backend.IncludeKnowledge))

	line := newHistoryLiner()
	defer line.Close()

	r := &repl{
		orch:    orch,
		backend: client,
		in:      line,
		out:     cmd.OutOrStdout(),
		turnContext: func(parent context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(parent, os.Interrupt)
		},
	}
	if threadID != "" {
		if err := r.open(ctx, threadID); err != nil {
			return err
		}
	}
	return r.run(ctx)
}

// replBackend is what line-mode commands call besides the chat turn.
type replBackend interface {
	Personalities(ctx context.Context) ([]model.Persona, error)
	Conversations(ctx context.Context) ([]model.ConversationSummary, error)
	Conversation(ctx context.Context, threadID string) ([]backend.HistoryMessage, error)
}

// repl is a line-mode chat. Every message goes through the same
// orchestrator and guard as the full-screen view; the log is printed as it
// grows.
type repl struct {
	orch        *turn.Orchestrator
	backend     replBackend
	in          lineReader
	out         io.Writer
	turnContext func(context.Context) (context.Context, context.CancelFunc)

	shown int
}

func (r *repl) run(ctx context.Context) error {
	fmt.Fprintln(r.out, TitleStyle.Render("syntaxchat")+" "+DimStyle.Render("type /help for commands, Ctrl+D to leave"))

	for {
		input, err := r.in.Prompt("you> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return errors.Wrap(err, "read input")
		}
		if strings.TrimSpace(input) == "" {
			// A blank line sends staged files on their own.
			if len(r.orch.Session().Attachments()) > 0 {
				r.send(ctx, "")
			}
			continue
		}
		r.in.AppendHistory(input)

		if name, args, ok := parseCommand(input); ok {
			if quit := r.command(ctx, name, args); quit {
				return nil
			}
			continue
		}
		r.send(ctx, input)
	}
}

// send runs one turn. Ctrl+C while waiting cancels the request only.
func (r *repl) send(ctx context.Context, text string) {
	turnCtx, cancel := r.turnContext(ctx)
	res := r.orch.Submit(turnCtx, text)
	cancel()

	if !res.Decision.Admitted {
		log.Debug().Str("reason", res.Decision.Reason.String()).Msg("line-mode submission rejected")
	}
	r.flush(false)
}

// flush prints log entries appended since the last flush. User bubbles are
// skipped when they echo what was just typed.
func (r *repl) flush(withUser bool) {
	entries := r.orch.Log().Entries()
	if r.shown > len(entries) {
		r.shown = 0
	}
	for _, m := range entries[r.shown:] {
		r.print(m, withUser)
	}
	r.shown = len(entries)
}

func (r *repl) print(m *model.Message, withUser bool) {
	switch {
	case m.Role == model.RoleUser:
		if withUser {
			fmt.Fprintln(r.out, UserPromptStyle.Render("you> ")+m.Content)
		}
		for _, att := range m.Attachments {
			fmt.Fprintln(r.out, DimStyle.Render("  "+components.ChipLabel(att, 60)))
		}
	case m.IsError:
		fmt.Fprintln(r.out, ErrorStyle.Render("! ")+m.Content)
	default:
		fmt.Fprintln(r.out, AssistantLabelStyle.Render(r.personaLabel(m)+">"))
		printReply(r.out, m.Content)
		if m.Meta != nil {
			fmt.Fprintln(r.out, DimStyle.Render(components.MetadataLine(*m.Meta)))
		}
	}
}

func (r *repl) personaLabel(m *model.Message) string {
	if m.Meta != nil && m.Meta.Persona != "" {
		return m.Meta.Persona
	}
	return "assistant"
}
