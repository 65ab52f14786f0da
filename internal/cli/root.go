// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/config"
	"github.com/jeranaias/syntaxchat/internal/guard"
	"github.com/jeranaias/syntaxchat/internal/logging"
	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/session"
)

// Version information, set at build time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// GLOBAL STATE
// =============================================================================

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	baseURL    string
	token      string
	persona    string
	logLevel   string
}

// app is what every command sees once the root pre-run has loaded config
// and installed the logger.
type app struct {
	flags globalFlags

	cfgPath   string
	cfg       *config.Config
	logCloser io.Closer
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "syntaxchat",
		Short:         "Chat with the syntaxchat assistant from your terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("syntaxchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate))

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default ~/.syntaxchat/config.toml)")
	pf.StringVar(&a.flags.baseURL, "url", "", "backend base URL")
	pf.StringVar(&a.flags.token, "token", "", "bearer token (overrides the token file)")
	pf.StringVar(&a.flags.persona, "persona", "", "persona id")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newAskCommand(a),
		newChatCommand(a),
		newPersonasCommand(a),
		newConversationsCommand(a),
		newShowCommand(a),
		newExportCommand(a),
		newFeedbackCommand(a),
		newTokenCommand(a),
		newLogoutCommand(a),
		newConfigCommand(a),
	)
	return root
}

// Execute runs the command tree against os.Args and returns the exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}

// =============================================================================
// SETUP
// =============================================================================

// setup loads the config file, layers the flags on top and installs the
// logger.
func (a *app) setup() error {
	path := a.flags.configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return err
	}
	a.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid flags")
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	closer, err := logging.Setup(logging.Options{Level: cfg.Logging.Level, File: logPath})
	if err != nil {
		return err
	}

	a.cfgPath = path
	a.cfg = cfg
	a.logCloser = closer
	config.SetGlobal(cfg)

	log.Debug().
		Str("config", path).
		Str("base_url", cfg.Backend.BaseURL).
		Str("persona", cfg.Chat.DefaultPersona).
		Msg("configuration loaded")
	return nil
}

func (a *app) applyFlags(cfg *config.Config) {
	if a.flags.baseURL != "" {
		cfg.Backend.BaseURL = a.flags.baseURL
	}
	if a.flags.token != "" {
		cfg.Backend.Token = a.flags.token
	}
	if a.flags.persona != "" {
		cfg.Chat.DefaultPersona = a.flags.persona
	}
	if a.flags.logLevel != "" {
		cfg.Logging.Level = a.flags.logLevel
	}
}

func (a *app) teardown() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

// =============================================================================
// SHARED CONSTRUCTION
// =============================================================================

// client builds a backend client from the resolved config.
func (a *app) client() (*backend.Client, error) {
	token, err := a.cfg.ResolveToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		log.Debug().Msg("no bearer token configured")
	}
	return backend.NewClient(a.cfg.Backend.BaseURL, token).WithTimeout(a.cfg.Backend.Timeout()), nil
}

// newGuard returns a guard tuned by [chat].
func (a *app) newGuard() *guard.Guard {
	return guard.New(
		guard.WithCooldown(a.cfg.Chat.Cooldown()),
		guard.WithDuplicateWindow(a.cfg.Chat.DuplicateWindow()),
	)
}

// newSession creates a session for the configured persona. Without one, the
// backend's default persona is used when the list can be fetched.
func (a *app) newSession(ctx context.Context, c *backend.Client) *session.Session {
	persona := a.cfg.Chat.DefaultPersona
	if persona == "" {
		list, err := c.Personalities(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("load personalities")
		} else if p, ok := model.DefaultPersona(list); ok {
			persona = p.ID
		}
	}
	return session.New(a.cfg.Backend.BaseURL, persona, a.newGuard())
}

// removeToken deletes the stored token file. A missing file is not an error.
func (a *app) removeToken() error {
	path, err := a.cfg.TokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove token file")
	}
	return nil
}
