// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"

	"github.com/jeranaias/syntaxchat/internal/backend"
)

// FailureKind classifies a failed turn for the user-facing message.
type FailureKind int

const (
	FailureNetwork FailureKind = iota
	FailureTimeout
	FailureAuth
	FailureServer
	FailureClient
	FailureSchema
	FailureInternal
)

// String returns the log name of the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureTimeout:
		return "timeout"
	case FailureAuth:
		return "auth"
	case FailureServer:
		return "server"
	case FailureClient:
		return "client"
	case FailureSchema:
		return "schema"
	case FailureInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Message is the text of the error bubble.
func (k FailureKind) Message() string {
	switch k {
	case FailureTimeout:
		return "The server took too long to respond. Please try again."
	case FailureAuth:
		return "Your session has expired. Please sign in again."
	case FailureServer:
		return "The server ran into a problem. Please try again in a moment."
	case FailureClient:
		return "The server could not process that message. Please try again."
	case FailureSchema:
		return "The server sent a reply I couldn't read. Please try again."
	case FailureInternal:
		return "Something went wrong while sending your message. Please try again."
	default:
		return "I couldn't reach the server. Check your connection and try again."
	}
}

// PanicError wraps a value recovered from a panic inside a turn.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic during turn: %v", e.Value)
}

// Classify maps an error from any turn step onto a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureInternal
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return FailureInternal
	}
	if errors.Is(err, backend.ErrUnauthorized) {
		return FailureAuth
	}
	if errors.Is(err, backend.ErrMissingField) || errors.Is(err, backend.ErrMalformedResponse) {
		return FailureSchema
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusRequestTimeout || apiErr.Status == http.StatusGatewayTimeout:
			return FailureTimeout
		case apiErr.Status >= 500:
			return FailureServer
		default:
			return FailureClient
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureNetwork
}
