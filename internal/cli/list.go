// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/util"
)

// =============================================================================
// PERSONAS
// =============================================================================

func newPersonasCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List the personas the backend offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			list, err := client.Personalities(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "load personalities")
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, DimStyle.Render("no personas"))
				return nil
			}
			width := 0
			for _, p := range list {
				width = max(width, util.StringWidth(p.ID))
			}
			for _, p := range list {
				line := util.PadRight(p.ID, width) + "  " + p.Label()
				if p.IsDefault {
					line += " " + DimStyle.Render("(default)")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func newConversationsCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"history"},
		Short:   "List past conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			list, err := client.Conversations(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "load conversations")
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, DimStyle.Render("no conversations yet"))
				return nil
			}
			for _, c := range list {
				fmt.Fprintln(out, conversationLine(c))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// conversationLine is "<thread_id>  <title>  (n messages, when)".
func conversationLine(c model.ConversationSummary) string {
	details := fmt.Sprintf("%d messages", c.MessageCount)
	if c.MessageCount == 1 {
		details = "1 message"
	}
	if !c.LastMessageAt.IsZero() {
		details += ", " + c.LastMessageAt.Local().Format("2006-01-02 15:04")
	}
	return c.ThreadID + "  " + util.TruncateWidth(c.DisplayTitle(), 50) + "  " + DimStyle.Render("("+details+")")
}

// =============================================================================
// SHOW
// =============================================================================

func newShowCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <thread_id>",
		Short: "Print a past conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			msgs, err := client.Conversation(cmd.Context(), args[0])
			if err != nil {
				return errors.Wrapf(err, "load conversation %s", args[0])
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, msgs)
			}
			for i, m := range msgs {
				if i > 0 {
					fmt.Fprintln(out)
				}
				label := UserPromptStyle.Render("you")
				if m.Role != model.RoleUser {
					label = AssistantLabelStyle.Render("assistant")
				}
				if !m.CreatedAt.IsZero() {
					label += " " + DimStyle.Render(m.CreatedAt.Local().Format(time.Kitchen))
				}
				fmt.Fprintln(out, label)
				printReply(out, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
