// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/guard"
	"github.com/jeranaias/syntaxchat/internal/msglog"
	"github.com/jeranaias/syntaxchat/internal/turn"
	"github.com/jeranaias/syntaxchat/internal/ui/components"
)

// newAskCommand sends a single message.
//
//	syntaxchat ask "What changed in the last release?"
//	syntaxchat ask --thread th_42 "and before that?"
//	echo "summarise this" | syntaxchat ask -
func newAskCommand(a *app) *cobra.Command {
	var (
		threadID string
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "-" {
				data, err := readAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = data
			}
			return a.runAsk(cmd, text, threadID, quiet)
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "continue an existing conversation")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the reply")
	return cmd
}

func (a *app) runAsk(cmd *cobra.Command, text, threadID string, quiet bool) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sess := a.newSession(ctx, client)
	if threadID != "" {
		sess.AdoptThread(threadID)
	}
	l := msglog.New()
	orch := turn.New(sess, l, client, turn.NopSurface{},
		turn.WithIncludeKnowledge(a.cfg.Backend.IncludeKnowledge))

	res := orch.Submit(ctx, text)
	if err := turnError(res); err != nil {
		return err
	}

	reply, ok := l.LatestAssistant()
	if !ok {
		return errors.New("no reply")
	}
	printReply(cmd.OutOrStdout(), reply.Content)
	if !quiet {
		thread, _ := sess.ThreadID()
		meta := ""
		if reply.Meta != nil {
			meta = components.MetadataLine(*reply.Meta) + " · "
		}
		fmt.Fprintln(cmd.ErrOrStderr(), DimStyle.Render(meta+"thread "+thread))
	}
	return nil
}

// turnError turns a rejected or failed headless turn into a command error
// carrying the same sentence the error bubble shows.
func turnError(res turn.Result) error {
	if !res.Decision.Admitted {
		if res.Decision.Reason == guard.ReasonEmpty {
			return errors.New("nothing to send")
		}
		return errors.Errorf("message not sent (%s)", res.Decision.Reason)
	}
	if res.Outcome.Err == nil {
		return nil
	}
	if errors.Is(res.Outcome.Err, context.Canceled) {
		return errors.New("cancelled")
	}
	kind := turn.Classify(res.Outcome.Err)
	if kind == turn.FailureAuth || errors.Is(res.Outcome.Err, backend.ErrNoToken) {
		return errors.New(kind.Message() + " Run `syntaxchat token` to store a token.")
	}
	return errors.New(kind.Message())
}
