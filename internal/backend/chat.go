// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jeranaias/syntaxchat/internal/envelope"
)

// clientIDSuffixLen is the length of the random part of a client message id.
const clientIDSuffixLen = 9

// =============================================================================
// REQUEST
// =============================================================================

// ClientMetadata identifies one submission from this client.
type ClientMetadata struct {
	SubmissionTimestamp string `json:"submission_timestamp"`
	ClientMessageID     string `json:"client_message_id"`
}

// NewClientMetadata stamps a submission made at at.
func NewClientMetadata(at time.Time) ClientMetadata {
	return ClientMetadata{
		SubmissionTimestamp: at.UTC().Format("2006-01-02T15:04:05.000Z"),
		ClientMessageID:     NewClientMessageID(at),
	}
}

// NewClientMessageID returns "msg_<unix millis>_<random suffix>".
func NewClientMessageID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:clientIDSuffixLen]
	return fmt.Sprintf("msg_%d_%s", at.UnixMilli(), suffix)
}

// ChatRequest is the body of POST /ai/chat. ThreadID is nil for the first
// turn of a thread and is sent as JSON null.
type ChatRequest struct {
	Message          string            `json:"message"`
	PersonalityID    string            `json:"personality_id"`
	ThreadID         *string           `json:"thread_id"`
	IncludeKnowledge bool              `json:"include_knowledge"`
	DatetimeContext  envelope.Envelope `json:"datetime_context"`
	ClientMetadata   ClientMetadata    `json:"client_metadata"`
}

// =============================================================================
// RESPONSE
// =============================================================================

// ContextTag is the echoed datetime-context marker. Backends send either a
// string or a boolean.
type ContextTag string

// UnmarshalJSON accepts a string, a boolean or null.
func (t *ContextTag) UnmarshalJSON(data []byte) error {
	switch s := strings.TrimSpace(string(data)); s {
	case "null":
		*t = ""
		return nil
	case "true", "false":
		*t = ContextTag(s)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		*t = ContextTag(strings.TrimSpace(string(data)))
		return nil
	}
	*t = ContextTag(str)
	return nil
}

// KnowledgeSource is one opaque source descriptor. Only the count is shown.
type KnowledgeSource = json.RawMessage

// ChatResponse is a successful turn.
type ChatResponse struct {
	Response            string            `json:"response"`
	ThreadID            string            `json:"thread_id"`
	MessageID           string            `json:"message_id"`
	PersonalityUsed     string            `json:"personality_used"`
	ResponseTimeMs      int64             `json:"response_time_ms"`
	KnowledgeSources    []KnowledgeSource `json:"knowledge_sources,omitempty"`
	DatetimeContextUsed ContextTag        `json:"datetime_context_used,omitempty"`
}

// chatWire is the decoded body before required fields are checked.
type chatWire struct {
	Response            *string           `json:"response"`
	ThreadID            *json.RawMessage  `json:"thread_id"`
	MessageID           *json.RawMessage  `json:"message_id"`
	PersonalityUsed     string            `json:"personality_used"`
	ResponseTimeMs      json.Number       `json:"response_time_ms"`
	KnowledgeSources    []KnowledgeSource `json:"knowledge_sources"`
	DatetimeContextUsed ContextTag        `json:"datetime_context_used"`
}

// Chat sends one turn.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var wire chatWire
	if err := c.doJSON(ctx, http.MethodPost, "/ai/chat", req, &wire); err != nil {
		return nil, err
	}

	if wire.Response == nil {
		return nil, errors.Wrap(ErrMissingField, "response")
	}
	threadID := idString(wire.ThreadID)
	if threadID == "" {
		return nil, errors.Wrap(ErrMissingField, "thread_id")
	}

	return &ChatResponse{
		Response:            *wire.Response,
		ThreadID:            threadID,
		MessageID:           idString(wire.MessageID),
		PersonalityUsed:     wire.PersonalityUsed,
		ResponseTimeMs:      millis(wire.ResponseTimeMs),
		KnowledgeSources:    wire.KnowledgeSources,
		DatetimeContextUsed: wire.DatetimeContextUsed,
	}, nil
}

// idString accepts ids sent as strings or numbers.
func idString(raw *json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(*raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(*raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func millis(n json.Number) int64 {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f))
}
