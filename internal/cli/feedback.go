// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/syntaxchat/internal/backend"
)

// newFeedbackCommand rates an assistant message.
//
//	syntaxchat feedback msg_17 good_answer
//	syntaxchat feedback msg_17 bad_answer "the date was wrong"
func newFeedbackCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "feedback <message_id> <good_answer|bad_answer|good_personality> [text]",
		Short: "Rate an assistant message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, err := backend.ParseFeedbackType(args[1])
			if err != nil {
				return err
			}
			req := backend.FeedbackRequest{MessageID: args[0], FeedbackType: ft}
			if text := strings.TrimSpace(strings.Join(args[2:], " ")); text != "" {
				req.FeedbackText = &text
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			if err := client.Feedback(cmd.Context(), req); err != nil {
				return errors.Wrap(err, "send feedback")
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" feedback sent")
			return nil
		},
	}
}
