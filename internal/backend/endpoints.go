// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jeranaias/syntaxchat/internal/model"
)

// =============================================================================
// PERSONALITIES
// =============================================================================

// Personalities lists the personas the backend offers.
func (c *Client) Personalities(ctx context.Context) ([]model.Persona, error) {
	var out struct {
		Personalities []model.Persona `json:"personalities"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/ai/personalities", nil, &out); err != nil {
		return nil, err
	}
	return out.Personalities, nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

type conversationWire struct {
	ThreadID      *json.RawMessage `json:"thread_id"`
	Title         string           `json:"title"`
	MessageCount  int              `json:"message_count"`
	LastMessageAt string           `json:"last_message_at"`
}

// Conversations lists the user's threads.
func (c *Client) Conversations(ctx context.Context) ([]model.ConversationSummary, error) {
	var out struct {
		Conversations []conversationWire `json:"conversations"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/ai/conversations", nil, &out); err != nil {
		return nil, err
	}

	list := make([]model.ConversationSummary, 0, len(out.Conversations))
	for _, w := range out.Conversations {
		id := idString(w.ThreadID)
		if id == "" {
			continue
		}
		list = append(list, model.ConversationSummary{
			ThreadID:      id,
			Title:         w.Title,
			MessageCount:  w.MessageCount,
			LastMessageAt: ParseTimestamp(w.LastMessageAt),
		})
	}
	return list, nil
}

// HistoryMessage is one stored message of a thread.
type HistoryMessage struct {
	ID        string     `json:"id"`
	Role      model.Role `json:"role"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

// Conversation fetches the messages of one thread, oldest first.
func (c *Client) Conversation(ctx context.Context, threadID string) ([]HistoryMessage, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, errors.New("thread id is required")
	}

	var out struct {
		Messages []struct {
			ID        *json.RawMessage `json:"id"`
			Role      string           `json:"role"`
			Content   string           `json:"content"`
			CreatedAt string           `json:"created_at"`
		} `json:"messages"`
	}
	path := "/ai/conversations/" + url.PathEscape(threadID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	msgs := make([]HistoryMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, HistoryMessage{
			ID:        idString(m.ID),
			Role:      model.ParseRole(m.Role),
			Content:   m.Content,
			CreatedAt: ParseTimestamp(m.CreatedAt),
		})
	}
	return msgs, nil
}

// timestampLayouts covers RFC 3339 and the zone-less ISO form many Python
// backends emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses a backend timestamp. Zone-less values are UTC.
// Unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// =============================================================================
// FEEDBACK
// =============================================================================

// FeedbackType is the kind of rating attached to an assistant message.
type FeedbackType string

const (
	FeedbackGoodAnswer      FeedbackType = "good_answer"
	FeedbackBadAnswer       FeedbackType = "bad_answer"
	FeedbackGoodPersonality FeedbackType = "good_personality"
)

// ParseFeedbackType validates a feedback type name.
func ParseFeedbackType(s string) (FeedbackType, error) {
	switch ft := FeedbackType(strings.TrimSpace(s)); ft {
	case FeedbackGoodAnswer, FeedbackBadAnswer, FeedbackGoodPersonality:
		return ft, nil
	default:
		return "", errors.Errorf("unknown feedback type %q (want good_answer, bad_answer or good_personality)", s)
	}
}

// FeedbackRequest is the body of POST /ai/feedback.
type FeedbackRequest struct {
	MessageID    string       `json:"message_id"`
	FeedbackType FeedbackType `json:"feedback_type"`
	FeedbackText *string      `json:"feedback_text"`
}

// Feedback rates an assistant message. Calls beyond the client-side budget
// fail with ErrThrottled without reaching the network.
func (c *Client) Feedback(ctx context.Context, req FeedbackRequest) error {
	if req.MessageID == "" {
		return errors.New("message id is required")
	}
	if _, err := ParseFeedbackType(string(req.FeedbackType)); err != nil {
		return err
	}
	if !c.feedback.Allow() {
		return ErrThrottled
	}
	return c.doJSON(ctx, http.MethodPost, "/ai/feedback", req, nil)
}

// =============================================================================
// AUTH
// =============================================================================

// Logout revokes the current token on the backend.
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		return ErrNoToken
	}
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", struct{}{})
	return err
}
