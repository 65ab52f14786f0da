// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/config"
	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/turn"
)

// =============================================================================
// TURN MESSAGES
// =============================================================================

// turnDoneMsg carries the result of the HTTP call back to the UI goroutine.
type turnDoneMsg struct {
	pending *turn.Pending
	outcome turn.Outcome
}

// focusMsg restores composer focus after the settle delay.
type focusMsg struct{}

// =============================================================================
// BACKEND MESSAGES
// =============================================================================

type personasMsg struct {
	personas []model.Persona
	err      error
}

type conversationsMsg struct {
	conversations []model.ConversationSummary
	err           error
}

type conversationMsg struct {
	threadID string
	messages []backend.HistoryMessage
	err      error
}

type feedbackMsg struct {
	messageID    string
	feedbackType backend.FeedbackType
	err          error
}

type logoutMsg struct {
	err error
}

// =============================================================================
// LOCAL MESSAGES
// =============================================================================

type exportMsg struct {
	path string
	err  error
}

// configMsg delivers a reloaded configuration file.
type configMsg struct {
	cfg *config.Config
}
