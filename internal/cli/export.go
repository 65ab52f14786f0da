// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/syntaxchat/internal/export"
)

// newExportCommand saves a server conversation as markdown, JSON or HTML.
//
//	syntaxchat export th_42
//	syntaxchat export th_42 --format html --output-dir ~/Documents
func newExportCommand(a *app) *cobra.Command {
	var (
		format    string
		outputDir string
		light     bool
		noMeta    bool
	)
	cmd := &cobra.Command{
		Use:   "export <thread_id>",
		Short: "Save a conversation to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			threadID := args[0]

			opts := export.DefaultOptions()
			if outputDir != "" {
				opts.OutputDir = outputDir
			}
			if light {
				opts.Theme = "light"
			}
			opts.IncludeMetadata = !noMeta
			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			msgs, err := client.Conversation(ctx, threadID)
			if err != nil {
				return errors.Wrapf(err, "load conversation %s", threadID)
			}

			// The list carries the server's title; the transcript derives
			// one from the first message without it.
			title := ""
			if list, err := client.Conversations(ctx); err != nil {
				log.Debug().Err(err).Msg("conversation title unavailable")
			} else {
				for _, c := range list {
					if c.ThreadID == threadID {
						title = c.Title
						break
					}
				}
			}

			path, err := export.ExportToFile(export.FromHistory(threadID, title, msgs), exporter, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md, json or html")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory to write to (default: current)")
	cmd.Flags().BoolVar(&light, "light", false, "light HTML theme")
	cmd.Flags().BoolVar(&noMeta, "no-metadata", false, "omit persona and timing details")
	return cmd
}
