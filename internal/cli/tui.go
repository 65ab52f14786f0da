// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/syntaxchat/internal/config"
	"github.com/jeranaias/syntaxchat/internal/ui/chat"
	"github.com/jeranaias/syntaxchat/internal/ui/styles"
)

// errNoTerminal is returned when the full-screen view cannot start.
var errNoTerminal = errors.New("the interactive client needs a terminal; try `syntaxchat chat --plain`")

// runTUI opens the full-screen chat view and blocks until it exits.
func (a *app) runTUI(cmd *cobra.Command) error {
	if !IsTTY() || !IsStdoutTTY() {
		return errNoTerminal
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	opts := chat.Options{
		Config:   a.cfg,
		Theme:    styles.NewTheme(a.cfg.UI.Theme),
		Backend:  client,
		OnLogout: a.removeToken,
	}

	watcher, err := config.Watch(a.cfgPath, 0)
	if err != nil {
		log.Warn().Err(err).Msg("config hot reload disabled")
	} else {
		defer watcher.Close()
		opts.ConfigUpdates = a.withFlags(ctx, watcher.Updates())
	}

	p := tea.NewProgram(chat.New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "chat view")
	}
	return nil
}

// withFlags re-applies command-line overrides to every reloaded config so a
// file edit does not undo --log-level or --persona.
func (a *app) withFlags(ctx context.Context, in <-chan *config.Config) <-chan *config.Config {
	out := make(chan *config.Config, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-in:
				if !ok {
					return
				}
				a.applyFlags(cfg)
				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
