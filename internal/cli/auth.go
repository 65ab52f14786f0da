// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/util"
)

// =============================================================================
// TOKEN
// =============================================================================

// newTokenCommand stores a bearer token. On a terminal the token is read
// without echo; otherwise it is read from stdin.
func newTokenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Store the bearer token used to talk to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if cmd.InOrStdin() == os.Stdin && IsTTY() {
				fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
				data, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return errors.Wrap(err, "read token")
				}
				token = string(data)
			} else {
				data, err := readAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				token = data
			}

			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("empty token")
			}
			path, err := a.cfg.TokenPath()
			if err != nil {
				return err
			}
			if err := util.AtomicWriteFile(path, []byte(token+"\n"), 0o600); err != nil {
				return errors.Wrap(err, "write token file")
			}
			log.Info().Str("path", path).Msg("token stored")
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" token saved to "+path)
			return nil
		},
	}
}

// =============================================================================
// LOGOUT
// =============================================================================

// newLogoutCommand revokes the token on the server and deletes the token
// file. A token the server already rejects is still deleted locally.
func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			err = client.Logout(cmd.Context())
			switch {
			case errors.Is(err, backend.ErrNoToken):
				fmt.Fprintln(out, DimStyle.Render("not signed in"))
				return nil
			case err != nil && !errors.Is(err, backend.ErrUnauthorized):
				return errors.Wrap(err, "logout")
			}

			if err := a.removeToken(); err != nil {
				return err
			}
			if a.cfg.Backend.Token != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("a token is still set in the config or SYNTAXCHAT_TOKEN"))
			}
			fmt.Fprintln(out, SuccessStyle.Render("✓")+" signed out")
			return nil
		},
	}
}
