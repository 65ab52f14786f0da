// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the syntaxchat configuration.
//
// The configuration lives in ~/.syntaxchat/config.toml. Missing values fall
// back to Default(), then environment variables override the file:
//
//   - SYNTAXCHAT_URL: backend.base_url
//   - SYNTAXCHAT_TOKEN: backend.token
//   - SYNTAXCHAT_PERSONA: chat.default_persona
//   - SYNTAXCHAT_LOG_LEVEL: logging.level
//
// Watch reports edits to the file so a running client can re-apply the
// [ui] and [logging] sections.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	token, err := cfg.ResolveToken()
package config
