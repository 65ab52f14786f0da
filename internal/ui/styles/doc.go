// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the colour palette and lipgloss styles of the chat
// UI. Colours are lipgloss.AdaptiveColor values so they follow the terminal
// background; NewTheme can pin the background to light or dark.
package styles
