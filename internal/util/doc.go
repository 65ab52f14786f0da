// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the client: width-aware
// string truncation for terminal layout and atomic file writes for the
// config, token and export files.
package util
