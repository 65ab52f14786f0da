// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli is the syntaxchat command tree.
//
// Running syntaxchat with no subcommand opens the interactive chat view.
// The subcommands reuse the same turn pipeline without a full-screen UI:
//
//	syntaxchat                          interactive chat
//	syntaxchat ask "question"           one turn, reply on stdout
//	syntaxchat chat --plain             line-mode chat with history
//	syntaxchat personas                 list personas
//	syntaxchat conversations            list past conversations
//	syntaxchat show <thread_id>         print a conversation
//	syntaxchat export <thread_id>       save a conversation to a file
//	syntaxchat feedback <id> <type>     rate an assistant message
//	syntaxchat token                    store the bearer token
//	syntaxchat logout                   revoke and forget the token
//	syntaxchat config show|path|init    inspect the configuration
//
// Global flags (--config, --url, --token, --persona, --log-level) override
// the config file and SYNTAXCHAT_* environment variables.
package cli
