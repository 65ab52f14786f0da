// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// # Key Types
//
//   - Transcript: a titled list of bubbles, built from the live message log
//     or from a stored conversation fetched from the backend
//   - Exporter: converts a transcript to bytes in one format
//   - Options: export configuration
//
// # Supported Formats
//
//   - Markdown: human-readable, inline formatting kept as written
//   - JSON: machine-readable with bubble metadata
//   - HTML: standalone page; text is escaped before inline formatting
//
// # Usage
//
//	t := export.FromLog(log, threadID, persona)
//	path, err := export.ExportToFile(t, export.NewHTMLExporter(nil), nil)
package export
