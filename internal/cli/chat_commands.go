// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/session"
	"github.com/jeranaias/syntaxchat/internal/ui/components"
)

// replHelp lists the line-mode commands.
var replHelp = []string{
	"/help               show this list",
	"/new                start a new conversation",
	"/persona [id]       show or choose the persona",
	"/history            list past conversations",
	"/open <thread_id>   continue a past conversation",
	"/thread             show the current thread id",
	"/attach <path>      add a file chip to the next message",
	"/detach             remove staged files",
	"/quit               leave",
}

// parseCommand splits "/name arg1 arg2". A leading "//" sends the text as a
// message.
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

// command runs a line-mode command and reports whether to leave.
func (r *repl) command(ctx context.Context, name string, args []string) bool {
	sess := r.orch.Session()

	switch name {
	case "quit", "exit", "q":
		return true

	case "help", "h":
		for _, line := range replHelp {
			fmt.Fprintln(r.out, DimStyle.Render(line))
		}

	case "new", "n":
		r.orch.NewChat()
		r.shown = 0
		fmt.Fprintln(r.out, DimStyle.Render("new conversation"))

	case "persona", "personas":
		r.persona(ctx, args)

	case "history":
		r.history(ctx)

	case "open":
		if len(args) == 0 {
			r.fail(errors.New("usage: /open <thread_id>"))
			break
		}
		if err := r.open(ctx, args[0]); err != nil {
			r.fail(err)
		}

	case "thread":
		if id, ok := sess.ThreadID(); ok {
			fmt.Fprintln(r.out, id)
		} else {
			fmt.Fprintln(r.out, DimStyle.Render("new conversation"))
		}

	case "attach":
		if len(args) == 0 {
			r.fail(errors.New("usage: /attach <path>"))
			break
		}
		att, err := model.NewAttachment(strings.Join(args, " "))
		if err != nil {
			r.fail(err)
			break
		}
		if err := sess.AddAttachment(att); err != nil {
			if errors.Is(err, session.ErrBusy) {
				err = errors.New("wait for the reply before attaching files")
			}
			r.fail(err)
			break
		}
		fmt.Fprintln(r.out, DimStyle.Render("attached "+components.ChipLabel(att, 60)))

	case "detach":
		sess.ClearAttachments()
		fmt.Fprintln(r.out, DimStyle.Render("attachments cleared"))

	default:
		r.fail(errors.Errorf("unknown command /%s (try /help)", name))
	}
	return false
}

func (r *repl) fail(err error) {
	fmt.Fprintln(r.out, ErrorStyle.Render("! ")+err.Error())
}

// persona lists personas, or selects one by id.
func (r *repl) persona(ctx context.Context, args []string) {
	list, err := r.backend.Personalities(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("load personalities")
		r.fail(errors.New("couldn't load personas"))
		return
	}
	sess := r.orch.Session()
	if len(args) == 0 {
		current := sess.Persona()
		for _, p := range list {
			marker := "  "
			if p.ID == current {
				marker = "› "
			}
			fmt.Fprintln(r.out, marker+p.Label()+DimStyle.Render("  "+p.ID))
		}
		return
	}
	p, ok := model.FindPersona(list, args[0])
	if !ok {
		r.fail(errors.Errorf("no persona %q", args[0]))
		return
	}
	sess.SetPersona(p.ID)
	fmt.Fprintln(r.out, DimStyle.Render("persona: "+p.Label()))
}

func (r *repl) history(ctx context.Context) {
	list, err := r.backend.Conversations(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("load conversations")
		r.fail(errors.New("couldn't load conversations"))
		return
	}
	if len(list) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("no conversations yet"))
		return
	}
	for _, c := range list {
		fmt.Fprintln(r.out, conversationLine(c))
	}
}

// open replays a stored conversation and continues it.
func (r *repl) open(ctx context.Context, threadID string) error {
	msgs, err := r.backend.Conversation(ctx, threadID)
	if err != nil {
		return errors.Wrapf(err, "load conversation %s", threadID)
	}
	if !r.orch.Replay(threadID, msgs) {
		return errors.New("wait for the reply before switching conversations")
	}
	r.shown = 0
	r.flush(true)
	return nil
}
