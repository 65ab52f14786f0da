// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components renders the pieces of the chat screen: message
// bubbles, the typing indicator, the welcome placeholder, the header, the
// status bar and the selection picker.
//
// Rendering is a pure function of its inputs. The same message, marks,
// width and theme always produce the same string.
package components
