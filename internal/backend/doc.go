// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the conversational backend.
//
// Every call carries the bearer token in the Authorization header. Non-2xx
// responses become *APIError, whose Detail is the JSON "detail" field when
// the backend supplies one and the HTTP status line otherwise.
//
// # Endpoints
//
//   - POST /ai/chat: Chat
//   - GET /ai/personalities: Personalities
//   - GET /ai/conversations: Conversations
//   - GET /ai/conversations/{thread_id}: Conversation
//   - POST /ai/feedback: Feedback
//   - POST /auth/logout: Logout
//
// # Usage
//
//	client := backend.NewClient("https://api.example.com", token).
//	    WithTimeout(2 * time.Minute)
//	resp, err := client.Chat(ctx, req)
package backend
