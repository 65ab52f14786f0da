// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the chat pipeline.
//
// # Key Types
//
//   - Message: one bubble in the log, user or assistant, with optional
//     attachments and assistant metadata
//   - Attachment: a file chip staged in the composer
//   - Persona: a backend-defined behavioural profile
//   - ConversationSummary: one row of the server-side conversation list
//
// # Usage
//
//	att, err := model.NewAttachment("notes/report.pdf")
//	if err != nil {
//	    return err
//	}
//	msg := model.NewUserMessage("Summarise this", []model.Attachment{att})
package model
